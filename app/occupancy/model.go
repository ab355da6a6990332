/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package occupancy

import (
	"time"

	"github.com/deepseaguard/compliance-engine/app/compliance"
	"github.com/deepseaguard/compliance-engine/app/zones"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// record is one open occupancy: a vehicle currently inside a zone. It pins
// the zone definition that was current at entry time, so dwell continues to
// be judged by those rules even if the zone is later replaced or removed
// from the store.
type record struct {
	zone      *zones.Zone
	enteredAt int64
	lastSeen  int64
	status    compliance.Status
	detail    string
}

func (r *record) duration(now int64) time.Duration {
	return time.Duration(now-r.enteredAt) * time.Millisecond
}

// vehicleState is everything the tracker keeps for one vehicle. Owned by a
// single lane goroutine; never shared.
type vehicleState struct {
	lastTimestamp int64
	lastPoint     geo.Point
	hasLast       bool
	records       map[string]*record
}

// ZonePresence is a read-only view of one open occupancy, as of the
// vehicle's last report.
type ZonePresence struct {
	ZoneID    string            `json:"zone_id"`
	ZoneName  string            `json:"zone_name"`
	ZoneType  zones.ZoneType    `json:"zone_type"`
	EnteredAt int64             `json:"entered_at"`
	LastSeen  int64             `json:"last_seen"`
	Duration  time.Duration     `json:"duration"`
	Status    compliance.Status `json:"status"`
	Details   string            `json:"details,omitempty"`
}

// State is a point-in-time snapshot of one vehicle. Status aggregates to
// the most severe open presence; a vehicle in no zones is compliant.
type State struct {
	VehicleID     string            `json:"auv_id"`
	LastTimestamp int64             `json:"last_timestamp"`
	Status        compliance.Status `json:"status"`
	Presences     []ZonePresence    `json:"zones"`
}
