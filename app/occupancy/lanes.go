/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package occupancy

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/deepseaguard/compliance-engine/app/compliance"
	"github.com/deepseaguard/compliance-engine/app/geofence"
	"github.com/deepseaguard/compliance-engine/app/zones"
	"github.com/deepseaguard/compliance-engine/pkg/fault"
)

// job is one unit of work routed to a lane. Exactly one of position or
// snapshot is set; reply always receives exactly one result.
type job struct {
	position *positionJob
	snapshot *snapshotJob
}

type positionJob struct {
	report  geofence.Position
	matched []*zones.Zone
	reply   chan error
}

type snapshotJob struct {
	vehicleID string
	reply     chan State
}

// Supervisor shards vehicles across a fixed set of worker lanes. Each lane
// owns one Tracker and runs one goroutine, so all state for a given vehicle
// is touched by exactly one goroutine and reports for it are applied in
// submission order. Lane queues are bounded; a full lane blocks the caller
// rather than dropping reports, since a dropped report would silently skew
// dwell times.
type Supervisor struct {
	lanes  []chan job
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSupervisor starts laneCount worker lanes, each with a queue of
// queueSize pending jobs.
func NewSupervisor(laneCount, queueSize int, grace time.Duration, sink compliance.Sink) (*Supervisor, error) {
	if laneCount <= 0 {
		return nil, errors.Wrapf(fault.ErrConfiguration, "lane count %d must be positive", laneCount)
	}
	if queueSize <= 0 {
		return nil, errors.Wrapf(fault.ErrConfiguration, "lane queue size %d must be positive", queueSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		lanes:  make([]chan job, laneCount),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	for i := range s.lanes {
		tracker, err := NewTracker(grace, sink)
		if err != nil {
			cancel()
			return nil, err
		}
		s.lanes[i] = make(chan job, queueSize)
		s.wg.Add(1)
		go s.runLane(ctx, i, tracker)
	}

	go func() {
		s.wg.Wait()
		close(s.done)
	}()

	return s, nil
}

func (s *Supervisor) runLane(ctx context.Context, lane int, tracker *Tracker) {
	defer s.wg.Done()
	log.WithFields(log.Fields{"Method": "runLane", "Lane": lane}).Debug("lane started")

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.lanes[lane]:
			switch {
			case j.position != nil:
				j.position.reply <- tracker.Process(j.position.report, j.position.matched)
			case j.snapshot != nil:
				j.snapshot.reply <- tracker.Snapshot(j.snapshot.vehicleID)
			}
		}
	}
}

// laneFor maps a vehicle id to its lane. FNV keeps the mapping stable across
// the supervisor's lifetime, which is all the ordering guarantee needs.
func (s *Supervisor) laneFor(vehicleID string) chan job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vehicleID))
	return s.lanes[int(h.Sum32()%uint32(len(s.lanes)))]
}

// Submit routes one position report to its vehicle's lane and waits for the
// outcome. Blocks while the lane queue is full. Returns ErrShutdown once the
// supervisor has been shut down, or the caller's context error if it expires
// first.
func (s *Supervisor) Submit(ctx context.Context, p geofence.Position, matched []*zones.Zone) error {
	j := job{position: &positionJob{report: p, matched: matched, reply: make(chan error, 1)}}

	select {
	case <-s.done:
		return errors.Wrap(fault.ErrShutdown, "position rejected")
	case <-ctx.Done():
		return ctx.Err()
	case s.laneFor(p.VehicleID) <- j:
	}

	select {
	case <-s.done:
		return errors.Wrap(fault.ErrShutdown, "position rejected")
	case err := <-j.position.reply:
		return err
	}
}

// Snapshot routes a state query through the vehicle's lane, so the answer
// reflects every report submitted before it.
func (s *Supervisor) Snapshot(ctx context.Context, vehicleID string) (State, error) {
	j := job{snapshot: &snapshotJob{vehicleID: vehicleID, reply: make(chan State, 1)}}

	select {
	case <-s.done:
		return State{}, errors.Wrap(fault.ErrShutdown, "snapshot rejected")
	case <-ctx.Done():
		return State{}, ctx.Err()
	case s.laneFor(vehicleID) <- j:
	}

	select {
	case <-s.done:
		return State{}, errors.Wrap(fault.ErrShutdown, "snapshot rejected")
	case state := <-j.snapshot.reply:
		return state, nil
	}
}

// Shutdown stops every lane and waits for them to finish the job in hand.
// Queued jobs that have not started are abandoned; their submitters receive
// ErrShutdown.
func (s *Supervisor) Shutdown() {
	s.cancel()
	<-s.done
}
