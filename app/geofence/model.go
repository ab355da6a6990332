/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package geofence

import (
	"github.com/pkg/errors"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// Position is one AUV telemetry report. Timestamps are unix milliseconds and
// must be non-decreasing per vehicle. The core consumes positions once and
// does not keep them.
type Position struct {
	VehicleID   string  `json:"auv_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DepthMeters float64 `json:"depth_meters"`
	Timestamp   int64   `json:"timestamp"`
}

// Point returns the planar coordinate used for containment testing. Depth
// plays no part in zone membership; zones are planar and depth only feeds
// depth rules.
func (p Position) Point() geo.Point {
	return geo.Point{Lat: p.Latitude, Lon: p.Longitude}
}

// Validate applies the boundary checks for one report.
func (p Position) Validate() error {
	if p.VehicleID == "" {
		return errors.Wrap(fault.ErrValidation, "vehicle id cannot be empty")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return errors.Wrapf(fault.ErrValidation, "latitude %f out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return errors.Wrapf(fault.ErrValidation, "longitude %f out of range [-180, 180]", p.Longitude)
	}
	if p.DepthMeters < 0 {
		return errors.Wrapf(fault.ErrValidation, "depth %f cannot be negative", p.DepthMeters)
	}
	if p.Timestamp <= 0 {
		return errors.Wrapf(fault.ErrValidation, "timestamp %d must be positive unix milliseconds", p.Timestamp)
	}
	return nil
}
