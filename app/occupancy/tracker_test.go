/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package occupancy

import (
	"strings"
	"testing"
	"time"

	"github.com/intel/rsp-sw-toolkit-im-suite-expect"
	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/helper"

	"github.com/deepseaguard/compliance-engine/app/compliance"
	"github.com/deepseaguard/compliance-engine/app/geofence"
	"github.com/deepseaguard/compliance-engine/app/zones"
	"github.com/deepseaguard/compliance-engine/pkg/fault"
)

const testGrace = 30 * time.Minute

// epoch anchors test telemetry clocks so offsets read as durations.
var epoch = time.Unix(0, 0).UTC()

// recordingSink collects events in emission order for assertions.
type recordingSink struct {
	events []compliance.Event
}

func (s *recordingSink) Emit(event compliance.Event) {
	s.events = append(s.events, event)
}

func (s *recordingSink) types() []compliance.EventType {
	out := make([]compliance.EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

func durationZone(zoneID string, max time.Duration) *zones.Zone {
	return &zones.Zone{
		ZoneID: zoneID,
		Name:   zoneID + " area",
		Type:   zones.TypeRestricted,
		Rules: []zones.Rule{{
			Kind:           zones.RuleDuration,
			MaxDuration:    max,
			WarningPercent: 80,
		}},
	}
}

func position(vehicleID string, ts time.Duration) geofence.Position {
	return geofence.Position{
		VehicleID:   vehicleID,
		Latitude:    -14.65,
		Longitude:   -125.45,
		DepthMeters: 3000,
		Timestamp:   helper.UnixMilli(epoch.Add(ts)),
	}
}

func newTestTracker(t *testing.T) (*Tracker, *recordingSink) {
	sink := &recordingSink{}
	tracker, err := NewTracker(testGrace, sink)
	if err != nil {
		t.Fatalf("unable to build tracker: %v", err)
	}
	return tracker, sink
}

func TestTrackerDwellLifecycle(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	// entry, compliant dwell, warning at 80%, violation at the limit, exit
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+30*time.Minute), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+50*time.Minute), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", 2*time.Hour+5*time.Minute), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", 2*time.Hour+10*time.Minute), nil))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventWarning,
		compliance.EventViolation,
		compliance.EventExit,
	})

	exit := sink.events[3]
	w.ShouldBeEqual(exit.Status, compliance.StatusViolation)
	w.ShouldBeEqual(exit.Duration, time.Hour+10*time.Minute)
	w.ShouldBeEqual(exit.Timestamp, int64((2*time.Hour+10*time.Minute)/time.Millisecond))
}

func TestTrackerStatusNeverRegresses(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+25*time.Minute), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+50*time.Minute), []*zones.Zone{zone}))
	// several more reports past the warning threshold must not repeat it
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+52*time.Minute), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+55*time.Minute), []*zones.Zone{zone}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventWarning,
	})
}

func TestTrackerOutOfOrderRejectedWithoutMutation(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))

	err := tracker.Process(position("AUV-7", 30*time.Minute), nil)
	w.ShouldFail(err)
	w.ShouldBeTrue(fault.IsValidation(err))

	// the stale report must not have produced an exit
	w.ShouldBeEqual(len(sink.events), 1)
	state := tracker.Snapshot("AUV-7")
	w.ShouldBeEqual(len(state.Presences), 1)
	w.ShouldBeEqual(state.LastTimestamp, int64(time.Hour/time.Millisecond))
}

func TestTrackerDuplicateTimestampIsIdempotent(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{compliance.EventEntry})
}

func TestTrackerGapClosesOccupancyRetroactively(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	// silence for two hours, far past the grace period, then a report
	// outside every zone
	w.ShouldSucceed(tracker.Process(position("AUV-7", 3*time.Hour), nil))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventExit,
	})

	// the exit is backdated to last contact plus the grace period, so the
	// gap never counts as dwell
	exit := sink.events[1]
	w.ShouldBeEqual(exit.Timestamp, int64((time.Hour+testGrace)/time.Millisecond))
	w.ShouldBeEqual(exit.Duration, testGrace)
	w.ShouldBeEqual(exit.Status, compliance.StatusCompliant)
}

func TestTrackerGapEmitsCrossedTransitionBeforeExit(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	// a 20 minute limit means the 30 minute grace alone crosses both the
	// warning and violation thresholds by the backdated exit time
	zone := durationZone("CCZ-1", 20*time.Minute)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", 5*time.Hour), nil))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventViolation,
		compliance.EventExit,
	})
	w.ShouldBeEqual(sink.events[1].Timestamp, sink.events[2].Timestamp)
	w.ShouldBeEqual(sink.events[2].Status, compliance.StatusViolation)
}

func TestTrackerGapStillInsideContinues(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", 4*time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	// silence for two hours, then a report still inside the zone: the new
	// position is authoritative, so the occupancy continues uninterrupted
	w.ShouldSucceed(tracker.Process(position("AUV-7", 3*time.Hour), []*zones.Zone{zone}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{compliance.EventEntry})

	state := tracker.Snapshot("AUV-7")
	w.ShouldBeEqual(len(state.Presences), 1)
	w.ShouldBeEqual(state.Presences[0].EnteredAt, int64(time.Hour/time.Millisecond))
	w.ShouldBeEqual(state.Presences[0].Duration, 2*time.Hour)
}

func TestTrackerGapStillInsideKeepsAccruingDwell(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", 3*time.Hour), []*zones.Zone{zone}))

	// two hours of dwell crossed the limit during the gap, so the report
	// that confirms continued presence escalates straight to violation
	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventViolation,
	})
	w.ShouldBeEqual(sink.events[1].Duration, 2*time.Hour)
}

func TestTrackerGapClosesOnlyDepartedZones(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	stayed := durationZone("CCZ-STAYED", 8*time.Hour)
	left := durationZone("CCZ-LEFT", 8*time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{stayed, left}))
	// after the gap the vehicle is only inside one of the two zones
	w.ShouldSucceed(tracker.Process(position("AUV-7", 3*time.Hour), []*zones.Zone{stayed}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventEntry,
		compliance.EventExit,
	})
	exit := sink.events[2]
	w.ShouldBeEqual(exit.ZoneID, "CCZ-LEFT")
	w.ShouldBeEqual(exit.Timestamp, int64((time.Hour+testGrace)/time.Millisecond))

	state := tracker.Snapshot("AUV-7")
	w.ShouldBeEqual(len(state.Presences), 1)
	w.ShouldBeEqual(state.Presences[0].ZoneID, "CCZ-STAYED")
	w.ShouldBeEqual(state.Presences[0].EnteredAt, int64(time.Hour/time.Millisecond))
}

func TestTrackerOverlappingZones(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	inner := durationZone("CCZ-INNER", 30*time.Minute)
	outer := durationZone("CCZ-OUTER", 4*time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{inner, outer}))
	// leaves the inner zone but stays in the outer one
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+10*time.Minute), []*zones.Zone{outer}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventEntry,
		compliance.EventExit,
	})
	w.ShouldBeEqual(sink.events[2].ZoneID, "CCZ-INNER")

	state := tracker.Snapshot("AUV-7")
	w.ShouldBeEqual(len(state.Presences), 1)
	w.ShouldBeEqual(state.Presences[0].ZoneID, "CCZ-OUTER")
}

func TestTrackerZoneRemovalStillClosesRecord(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))

	// the zone was deleted from the store mid-dwell, so later evaluations
	// no longer match it; the open record still closes with its exit event
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+10*time.Minute), nil))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventExit,
	})
	w.ShouldBeEqual(sink.events[1].Duration, 10*time.Minute)
}

func TestTrackerDepthRuleViolatesOnEntry(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := &zones.Zone{
		ZoneID: "DEEP-1",
		Name:   "deep habitat",
		Type:   zones.TypeProtected,
		Rules: []zones.Rule{
			{Kind: zones.RuleDuration, MaxDuration: 4 * time.Hour, WarningPercent: 80},
			{Kind: zones.RuleDepth, MinDepthMeters: 3500},
		},
	}

	// depth 3000m is above the 3500m floor
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{zone}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventViolation,
	})
}

func TestTrackerDetailSurvivesClearedClassification(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := &zones.Zone{
		ZoneID: "DEEP-1",
		Name:   "deep habitat",
		Type:   zones.TypeProtected,
		Rules:  []zones.Rule{{Kind: zones.RuleDepth, MinDepthMeters: 3500}},
	}

	// first report is above the depth floor, the second dives below it
	shallow := position("AUV-7", time.Hour)
	w.ShouldSucceed(tracker.Process(shallow, []*zones.Zone{zone}))

	deep := position("AUV-7", time.Hour+10*time.Minute)
	deep.DepthMeters = 3600
	w.ShouldSucceed(tracker.Process(deep, []*zones.Zone{zone}))

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+20*time.Minute), nil))

	// diving back below the floor clears the classification but the record
	// stays in violation and keeps the explanation it was flagged with
	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventViolation,
		compliance.EventExit,
	})
	exit := sink.events[2]
	w.ShouldBeEqual(exit.Status, compliance.StatusViolation)
	w.ShouldBeTrue(strings.Contains(exit.Details, "floor"))
}

func TestTrackerSpeedDerivedFromConsecutiveReports(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)
	zone := &zones.Zone{
		ZoneID: "SLOW-1",
		Name:   "slow transit",
		Type:   zones.TypeSensitive,
		Rules:  []zones.Rule{{Kind: zones.RuleSpeed, MaxSpeedMetersPerSec: 1}},
	}

	first := position("AUV-7", time.Hour)
	w.ShouldSucceed(tracker.Process(first, []*zones.Zone{zone}))
	w.ShouldBeEqual(sink.types(), []compliance.EventType{compliance.EventEntry})

	// ~0.01 degrees of latitude in 60s is roughly 18.5m/s
	second := position("AUV-7", time.Hour+time.Minute)
	second.Latitude += 0.01
	w.ShouldSucceed(tracker.Process(second, []*zones.Zone{zone}))

	w.ShouldBeEqual(sink.types(), []compliance.EventType{
		compliance.EventEntry,
		compliance.EventViolation,
	})
}

func TestTrackerVehiclesAreIndependent(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, _ := newTestTracker(t)
	zone := durationZone("CCZ-1", time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-1", time.Hour), []*zones.Zone{zone}))
	w.ShouldSucceed(tracker.Process(position("AUV-2", 2*time.Hour), []*zones.Zone{zone}))
	// AUV-1's clock trails AUV-2's and must still be accepted
	w.ShouldSucceed(tracker.Process(position("AUV-1", time.Hour+time.Minute), []*zones.Zone{zone}))

	w.ShouldBeEqual(tracker.Snapshot("AUV-1").LastTimestamp, int64((time.Hour+time.Minute)/time.Millisecond))
	w.ShouldBeEqual(tracker.Snapshot("AUV-2").LastTimestamp, int64(2*time.Hour/time.Millisecond))
}

func TestTrackerSnapshotAggregatesStatus(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, _ := newTestTracker(t)
	short := durationZone("CCZ-SHORT", 10*time.Minute)
	long := durationZone("CCZ-LONG", 10*time.Hour)

	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour), []*zones.Zone{short, long}))
	w.ShouldSucceed(tracker.Process(position("AUV-7", time.Hour+20*time.Minute), []*zones.Zone{short, long}))

	state := tracker.Snapshot("AUV-7")
	w.ShouldBeEqual(state.Status, compliance.StatusViolation)
	w.ShouldBeEqual(len(state.Presences), 2)
}

func TestTrackerSnapshotUnknownVehicle(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, _ := newTestTracker(t)

	state := tracker.Snapshot("AUV-UNSEEN")
	w.ShouldBeEqual(state.Status, compliance.StatusCompliant)
	w.ShouldBeEqual(len(state.Presences), 0)
	w.ShouldBeEqual(state.LastTimestamp, int64(0))
}

func TestTrackerRejectsInvalidPosition(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	tracker, sink := newTestTracker(t)

	bad := position("AUV-7", time.Hour)
	bad.Latitude = 123
	err := tracker.Process(bad, nil)
	w.ShouldFail(err)
	w.ShouldBeTrue(fault.IsValidation(err))
	w.ShouldBeEqual(len(sink.events), 0)
}

func TestNewTrackerConfiguration(t *testing.T) {
	w := expect.WrapT(t)

	_, err := NewTracker(0, &recordingSink{})
	w.ShouldFail(err)
	w.ShouldBeTrue(fault.IsConfiguration(err))

	_, err = NewTracker(testGrace, nil)
	w.ShouldFail(err)
	w.ShouldBeTrue(fault.IsConfiguration(err))
}
