/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package zones

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/go-metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// DuplicatePolicy decides what a zone load does when a definition reuses an
// existing zone id. The choice is explicit; there is no implicit fallback.
type DuplicatePolicy string

const (
	PolicyReject    DuplicatePolicy = "reject"
	PolicyOverwrite DuplicatePolicy = "overwrite"
)

// ParsePolicy converts the config string form.
func ParsePolicy(value string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(value) {
	case PolicyReject, PolicyOverwrite:
		return DuplicatePolicy(value), nil
	default:
		return "", errors.Wrapf(fault.ErrConfiguration, "unknown duplicate zone policy %q", value)
	}
}

// Store owns the validated zone set and its spatial index. Mutations rebuild
// a fresh snapshot off to the side and swap it in atomically, so evaluation
// reads never block on a rebuild and never observe a partial index.
type Store struct {
	policy                DuplicatePolicy
	defaultWarningPercent float64

	writeMu sync.Mutex
	zones   map[string]*Zone
	current atomic.Value // *Snapshot
}

// Snapshot is an immutable view of the zone set plus its index. Readers hold
// one snapshot for the duration of an evaluation.
type Snapshot struct {
	Zones   []*Zone
	BuiltAt time.Time
	index   *gridIndex
}

// Candidates returns the zones whose bounding box contains the point.
func (s *Snapshot) Candidates(pt geo.Point) []*Zone {
	return s.index.candidates(pt)
}

// BatchError reports the definitions a load rejected, keyed by zone id.
// Valid zones in the same batch are unaffected by these rejections.
type BatchError struct {
	Rejected map[string]error
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Rejected))
	for zoneID, err := range e.Rejected {
		parts = append(parts, zoneID+": "+err.Error())
	}
	sort.Strings(parts)
	return "rejected zones: " + strings.Join(parts, "; ")
}

// NewStore builds an empty store with the given duplicate policy.
func NewStore(policy DuplicatePolicy, defaultWarningPercent float64) *Store {
	s := &Store{
		policy:                policy,
		defaultWarningPercent: defaultWarningPercent,
		zones:                 make(map[string]*Zone),
	}
	s.current.Store(s.buildSnapshot())
	return s
}

// Load replaces the active zone set with the batch. Each definition is
// validated independently; an invalid zone is rejected without affecting the
// rest of the batch. If every definition is rejected, the active set is left
// untouched. The returned error, if any, is a *BatchError.
func (s *Store) Load(defs []Definition) error {
	return s.apply(defs, true)
}

// Upsert merges the batch into the active zone set under the store's
// duplicate policy.
func (s *Store) Upsert(defs []Definition) error {
	return s.apply(defs, false)
}

func (s *Store) apply(defs []Definition, replace bool) error {
	metrics.GetOrRegisterGauge(`Zones.Load.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Zones.Load.Success`, nil)
	mValidationErr := metrics.GetOrRegisterGauge(`Zones.Load.Validation-Error`, nil)
	mLoadLatency := metrics.GetOrRegisterTimer(`Zones.Load.Latency`, nil)

	loadTimer := time.Now()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := make(map[string]*Zone)
	if !replace {
		for id, zone := range s.zones {
			next[id] = zone
		}
	}

	rejected := make(map[string]error)
	accepted := 0
	for _, def := range defs {
		if _, exists := next[def.ZoneID]; exists && s.policy == PolicyReject {
			rejected[def.ZoneID] = errors.Wrapf(fault.ErrValidation, "duplicate zone id %q", def.ZoneID)
			continue
		}

		zone, err := def.toZone(s.defaultWarningPercent)
		if err != nil {
			rejected[def.ZoneID] = err
			continue
		}
		next[def.ZoneID] = zone
		accepted++
	}

	if len(rejected) > 0 {
		mValidationErr.Update(int64(len(rejected)))
		log.WithFields(log.Fields{
			"Method":   "zones.apply",
			"Rejected": len(rejected),
		}).Warning("Zone batch contained rejected definitions.")
	}

	// a fully rejected batch must not wipe the active set
	if accepted > 0 || (replace && len(defs) == 0) {
		s.zones = next
		s.swapSnapshot()
	}

	mLoadLatency.Update(time.Since(loadTimer))

	if len(rejected) > 0 {
		return &BatchError{Rejected: rejected}
	}
	mSuccess.Update(1)
	return nil
}

// Remove deletes one zone and rebuilds the index.
func (s *Store) Remove(zoneID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, exists := s.zones[zoneID]; !exists {
		return errors.Wrapf(fault.ErrNotFound, "zone %q", zoneID)
	}
	delete(s.zones, zoneID)
	s.swapSnapshot()
	return nil
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load().(*Snapshot)
}

// Zones returns the active zone set ordered by zone id.
func (s *Store) Zones() []*Zone {
	return s.Current().Zones
}

// Rebuild rebuilds the index from the current zone set. Mutations already
// rebuild synchronously; this exists for the staleness-bounding timer.
func (s *Store) Rebuild() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.swapSnapshot()
}

// StartRebuild rebuilds the snapshot on a fixed interval until the context
// is cancelled. A zero interval disables the timer.
func (s *Store) StartRebuild(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Rebuild()
				log.Debugf("periodic index rebuild completed with %d zones", len(s.Zones()))
			}
		}
	}()
}

// swapSnapshot builds the new snapshot away from readers, then publishes it
// with a single atomic store. Callers hold writeMu.
func (s *Store) swapSnapshot() {
	s.current.Store(s.buildSnapshot())
}

func (s *Store) buildSnapshot() *Snapshot {
	zoneList := make([]*Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		zoneList = append(zoneList, zone)
	}
	sort.Slice(zoneList, func(i, j int) bool { return zoneList[i].ZoneID < zoneList[j].ZoneID })

	return &Snapshot{
		Zones:   zoneList,
		BuiltAt: time.Now(),
		index:   buildIndex(zoneList),
	}
}
