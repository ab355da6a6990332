/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package engine assembles the compliance core: the zone store and spatial
// index, the geofence evaluator, and the sharded occupancy tracker that
// turns AUV position reports into entry, warning, violation, and exit
// events. Embedding systems construct one Engine, feed it positions, and
// consume events through a compliance.Sink.
package engine
