/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package compliance

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies a vehicle's dwell against a zone's rules. Severity only
// ever increases while an occupancy record stays open; it resets when a new
// record begins after an exit.
type Status string

const (
	StatusCompliant Status = "compliant"
	StatusWarning   Status = "warning"
	StatusViolation Status = "violation"
)

func (s Status) severity() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusViolation:
		return 2
	default:
		return 0
	}
}

// Exceeds reports whether s is strictly more severe than other.
func (s Status) Exceeds(other Status) bool {
	return s.severity() > other.severity()
}

// MostSevere reduces two statuses to the worse one.
func MostSevere(a, b Status) Status {
	if b.Exceeds(a) {
		return b
	}
	return a
}

// EventType tags the transition an event announces.
type EventType string

const (
	EventEntry     EventType = "entry"
	EventExit      EventType = "exit"
	EventWarning   EventType = "warning"
	EventViolation EventType = "violation"
)

// Event is a one-shot compliance notification. Immutable once emitted;
// ownership transfers to the sink, which owns durability and fan-out.
type Event struct {
	ID        string        `json:"id"`
	VehicleID string        `json:"auv_id"`
	ZoneID    string        `json:"zone_id"`
	ZoneName  string        `json:"zone_name"`
	Type      EventType     `json:"event_type"`
	Status    Status        `json:"status"`
	Timestamp int64         `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Details   string        `json:"details,omitempty"`
}

// NewEvent stamps a fresh event with a unique id.
func NewEvent(vehicleID, zoneID, zoneName string, eventType EventType, status Status, timestamp int64, duration time.Duration, details string) Event {
	return Event{
		ID:        uuid.New().String(),
		VehicleID: vehicleID,
		ZoneID:    zoneID,
		ZoneName:  zoneName,
		Type:      eventType,
		Status:    status,
		Timestamp: timestamp,
		Duration:  duration,
		Details:   details,
	}
}

// TransitionEventType maps a newly reached status to the event announcing it.
func TransitionEventType(status Status) EventType {
	if status == StatusViolation {
		return EventViolation
	}
	return EventWarning
}
