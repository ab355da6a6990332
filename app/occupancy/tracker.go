/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package occupancy

import (
	"sort"
	"time"

	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/go-metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/deepseaguard/compliance-engine/app/compliance"
	"github.com/deepseaguard/compliance-engine/app/geofence"
	"github.com/deepseaguard/compliance-engine/app/zones"
	"github.com/deepseaguard/compliance-engine/pkg/fault"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// Tracker maintains per-vehicle occupancy state and turns position reports
// into compliance events. A Tracker is not safe for concurrent use; the lane
// supervisor gives each tracker a single goroutine and routes every report
// for a given vehicle to the same tracker, which is what makes the
// per-vehicle ordering guarantees hold.
type Tracker struct {
	grace    time.Duration
	sink     compliance.Sink
	vehicles map[string]*vehicleState
}

// NewTracker builds a tracker with the given telemetry gap grace period.
func NewTracker(grace time.Duration, sink compliance.Sink) (*Tracker, error) {
	if grace <= 0 {
		return nil, errors.Wrapf(fault.ErrConfiguration, "grace period %v must be positive", grace)
	}
	if sink == nil {
		return nil, errors.Wrap(fault.ErrConfiguration, "event sink cannot be nil")
	}
	return &Tracker{
		grace:    grace,
		sink:     sink,
		vehicles: make(map[string]*vehicleState),
	}, nil
}

// Process applies one position report. matched is the set of zones that
// contain the position, as resolved by the geofence evaluator. Events are
// emitted to the sink in transition order: exits first, then entries and
// status escalations triggered by this report.
//
// After a telemetry gap longer than the grace period the new position is
// authoritative: zones it still matches continue uninterrupted with their
// original entry time, while zones it no longer matches get their exit
// backdated to last contact plus the grace period.
//
// A report older than the vehicle's last one is rejected without touching
// state. A report with the same timestamp as the last one is treated as a
// duplicate delivery and dropped silently.
func (t *Tracker) Process(p geofence.Position, matched []*zones.Zone) error {
	mProcessLatency := metrics.GetOrRegisterTimer(`Occupancy.Process.Latency`, nil)
	mOutOfOrder := metrics.GetOrRegisterGaugeCollection(`Occupancy.Process.OutOfOrder`, nil)
	processStart := time.Now()
	defer func() { mProcessLatency.Update(time.Since(processStart)) }()

	if err := p.Validate(); err != nil {
		return err
	}

	vs, found := t.vehicles[p.VehicleID]
	if !found {
		vs = &vehicleState{records: make(map[string]*record)}
		t.vehicles[p.VehicleID] = vs
	}

	if vs.lastTimestamp != 0 {
		if p.Timestamp < vs.lastTimestamp {
			mOutOfOrder.Add(1)
			return errors.Wrapf(fault.ErrValidation,
				"out-of-order position for %s: %d is before %d",
				p.VehicleID, p.Timestamp, vs.lastTimestamp)
		}
		if p.Timestamp == vs.lastTimestamp {
			return nil
		}
	}

	graceMillis := int64(t.grace / time.Millisecond)
	gapExceeded := vs.hasLast && p.Timestamp-vs.lastTimestamp > graceMillis

	obs := compliance.Observation{DepthMeters: p.DepthMeters}
	if vs.hasLast && !gapExceeded {
		obs.SpeedMetersPerSec = deriveSpeed(vs, p)
		obs.HasSpeed = true
	}

	inside := make(map[string]bool, len(matched))
	for _, zone := range matched {
		inside[zone.ZoneID] = true
	}

	// exits before entries, so a vehicle crossing between adjacent zones
	// reads as leave-then-arrive
	for _, zoneID := range sortedRecordIDs(vs.records) {
		if inside[zoneID] {
			continue
		}
		rec := vs.records[zoneID]
		exitAt := p.Timestamp
		if gapExceeded {
			// the vehicle went dark and resurfaced outside this zone, so
			// presence past the grace boundary cannot be assumed; charging
			// the whole gap as dwell would manufacture violations out of a
			// dead transponder
			exitAt = vs.lastTimestamp + graceMillis
			log.WithFields(log.Fields{
				"Method":    "Process",
				"VehicleId": p.VehicleID,
				"ZoneId":    zoneID,
				"ExitAt":    exitAt,
			}).Info("telemetry gap exceeded grace period, closing occupancy at the grace boundary")
		}
		t.closeRecord(p.VehicleID, rec, exitAt)
		delete(vs.records, zoneID)
	}

	for _, zone := range matched {
		rec, open := vs.records[zone.ZoneID]
		if !open {
			rec = &record{zone: zone, enteredAt: p.Timestamp, status: compliance.StatusCompliant}
			vs.records[zone.ZoneID] = rec
			t.sink.Emit(compliance.NewEvent(p.VehicleID, zone.ZoneID, zone.Name,
				compliance.EventEntry, compliance.StatusCompliant, p.Timestamp, 0, ""))
		}
		rec.lastSeen = p.Timestamp

		obs.Duration = rec.duration(p.Timestamp)
		status, detail := compliance.Classify(rec.zone, obs)
		// detail tracks the record's monotonic status, so a transient
		// classification that later clears must not blank it
		if status.Exceeds(rec.status) {
			rec.status = status
			rec.detail = detail
			t.sink.Emit(compliance.NewEvent(p.VehicleID, zone.ZoneID, zone.Name,
				compliance.TransitionEventType(status), status, p.Timestamp, obs.Duration, detail))
		}
	}

	vs.lastTimestamp = p.Timestamp
	vs.lastPoint = p.Point()
	vs.hasLast = true
	return nil
}

// closeRecord finalizes one occupancy at the given exit time. If the final
// dwell crossed a threshold the record never reported, the escalation event
// is emitted before the exit so the consumer sees transitions in order.
func (t *Tracker) closeRecord(vehicleID string, rec *record, exitAt int64) {
	finalDuration := rec.duration(exitAt)

	status, detail := compliance.Classify(rec.zone, compliance.Observation{Duration: finalDuration})
	if status.Exceeds(rec.status) {
		rec.status = status
		rec.detail = detail
		t.sink.Emit(compliance.NewEvent(vehicleID, rec.zone.ZoneID, rec.zone.Name,
			compliance.TransitionEventType(status), status, exitAt, finalDuration, detail))
	}

	t.sink.Emit(compliance.NewEvent(vehicleID, rec.zone.ZoneID, rec.zone.Name,
		compliance.EventExit, rec.status, exitAt, finalDuration, rec.detail))
}

// Snapshot reports the vehicle's open occupancies as of its last report.
// A vehicle that has never reported yields an empty compliant state.
func (t *Tracker) Snapshot(vehicleID string) State {
	state := State{
		VehicleID: vehicleID,
		Status:    compliance.StatusCompliant,
		Presences: []ZonePresence{},
	}

	vs, found := t.vehicles[vehicleID]
	if !found {
		return state
	}

	state.LastTimestamp = vs.lastTimestamp
	for _, zoneID := range sortedRecordIDs(vs.records) {
		rec := vs.records[zoneID]
		state.Presences = append(state.Presences, ZonePresence{
			ZoneID:    rec.zone.ZoneID,
			ZoneName:  rec.zone.Name,
			ZoneType:  rec.zone.Type,
			EnteredAt: rec.enteredAt,
			LastSeen:  rec.lastSeen,
			Duration:  rec.duration(vs.lastTimestamp),
			Status:    rec.status,
			Details:   rec.detail,
		})
		state.Status = compliance.MostSevere(state.Status, rec.status)
	}
	return state
}

func deriveSpeed(vs *vehicleState, p geofence.Position) float64 {
	elapsed := float64(p.Timestamp-vs.lastTimestamp) / 1000.0
	return geo.DistanceMeters(vs.lastPoint, p.Point()) / elapsed
}

func sortedRecordIDs(records map[string]*record) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
