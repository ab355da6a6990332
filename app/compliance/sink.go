package compliance

import (
	log "github.com/sirupsen/logrus"
)

// Sink is the boundary the surrounding system implements to receive events.
// The core guarantees per-vehicle ordering (entry before warning/violation
// before exit for one occupancy record) and nothing across vehicles. It does
// not retry, persist, or fan out; that is the collaborator's job.
type Sink interface {
	Emit(event Event)
}

// LogSink writes every event to the service log. Useful as a default sink
// and in development.
type LogSink struct{}

func (LogSink) Emit(event Event) {
	log.WithFields(log.Fields{
		"VehicleId": event.VehicleID,
		"ZoneId":    event.ZoneID,
		"EventType": event.Type,
		"Status":    event.Status,
		"Duration":  event.Duration,
	}).Infof("compliance event: %s", event.Details)
}

// ChannelSink hands events to a consumer over a bounded channel. A full
// channel blocks the emitting lane; losing events would silently corrupt the
// collaborator's view, so backpressure is the lesser evil.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, size)}
}

func (s *ChannelSink) Emit(event Event) {
	s.C <- event
}
