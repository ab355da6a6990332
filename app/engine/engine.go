/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package engine

import (
	"context"
	"strings"
	"time"

	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/go-metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/deepseaguard/compliance-engine/app/compliance"
	"github.com/deepseaguard/compliance-engine/app/config"
	"github.com/deepseaguard/compliance-engine/app/geofence"
	"github.com/deepseaguard/compliance-engine/app/occupancy"
	"github.com/deepseaguard/compliance-engine/app/zones"
	"github.com/deepseaguard/compliance-engine/pkg/fault"
)

// Options carries everything an Engine needs at construction. There are no
// globals; the surrounding system builds one engine and owns its lifecycle.
type Options struct {
	// GracePeriod bounds how long telemetry silence still counts as
	// presence. Required.
	GracePeriod time.Duration

	// DefaultWarningPercent applies to duration rules that do not set their
	// own warning threshold.
	DefaultWarningPercent float64

	// DuplicateZonePolicy decides whether a zone load that reuses an
	// existing id is rejected or replaces the old definition.
	DuplicateZonePolicy zones.DuplicatePolicy

	LaneCount     int
	LaneQueueSize int

	// IndexRebuildInterval bounds spatial index staleness; zero disables
	// the periodic rebuild.
	IndexRebuildInterval time.Duration
}

// OptionsFromAppConfig maps the loaded service configuration onto engine
// options. config.InitConfig must have run first.
func OptionsFromAppConfig() (Options, error) {
	policy, err := zones.ParsePolicy(config.AppConfig.DuplicateZonePolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		GracePeriod:           time.Duration(config.AppConfig.GapGracePeriodSeconds) * time.Second,
		DefaultWarningPercent: config.AppConfig.DefaultWarningThresholdPercent,
		DuplicateZonePolicy:   policy,
		LaneCount:             config.AppConfig.LaneCount,
		LaneQueueSize:         config.AppConfig.LaneQueueSize,
		IndexRebuildInterval:  time.Duration(config.AppConfig.IndexRebuildIntervalSeconds) * time.Second,
	}, nil
}

// Engine is the facade over the zone store, geofence evaluator, and
// occupancy lanes. All methods are safe for concurrent use.
type Engine struct {
	store      *zones.Store
	evaluator  *geofence.Evaluator
	supervisor *occupancy.Supervisor
	cancel     context.CancelFunc
}

// New wires up an engine that reports compliance events to the given sink.
// A nil sink gets the log sink.
func New(sink compliance.Sink, opts Options) (*Engine, error) {
	if sink == nil {
		sink = compliance.LogSink{}
	}
	if opts.DefaultWarningPercent == 0 {
		opts.DefaultWarningPercent = 80
	}
	if opts.LaneCount == 0 {
		opts.LaneCount = 8
	}
	if opts.LaneQueueSize == 0 {
		opts.LaneQueueSize = 64
	}
	if opts.IndexRebuildInterval < 0 {
		return nil, errors.Wrapf(fault.ErrConfiguration, "index rebuild interval %v cannot be negative", opts.IndexRebuildInterval)
	}

	store := zones.NewStore(opts.DuplicateZonePolicy, opts.DefaultWarningPercent)
	supervisor, err := occupancy.NewSupervisor(opts.LaneCount, opts.LaneQueueSize, opts.GracePeriod, sink)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if opts.IndexRebuildInterval > 0 {
		store.StartRebuild(ctx, opts.IndexRebuildInterval)
	}

	return &Engine{
		store:      store,
		evaluator:  geofence.NewEvaluator(store),
		supervisor: supervisor,
		cancel:     cancel,
	}, nil
}

// LoadZones replaces the active zone set. Invalid definitions are rejected
// individually; see zones.BatchError.
func (e *Engine) LoadZones(defs []zones.Definition) error {
	return e.store.Load(defs)
}

// LoadZonesJSON validates a raw zone document array against the definition
// schema before loading it.
func (e *Engine) LoadZonesJSON(body []byte) error {
	defs, err := zones.DecodeDefinitions(body)
	if err != nil {
		return err
	}
	return e.store.Load(defs)
}

// UpsertZones merges definitions into the active zone set.
func (e *Engine) UpsertZones(defs []zones.Definition) error {
	return e.store.Upsert(defs)
}

// UpsertZonesJSON validates and merges a raw zone document array.
func (e *Engine) UpsertZonesJSON(body []byte) error {
	defs, err := zones.DecodeDefinitions(body)
	if err != nil {
		return err
	}
	return e.store.Upsert(defs)
}

// RemoveZone deletes one zone. Vehicles currently inside it keep their open
// occupancy until their position no longer matches the zone set, at which
// point the exit is judged by the rules pinned at entry.
func (e *Engine) RemoveZone(zoneID string) error {
	return e.store.Remove(zoneID)
}

// Zones exports the active zone set in definition form, ordered by zone id.
func (e *Engine) Zones() ([]zones.Definition, error) {
	active := e.store.Zones()
	defs := make([]zones.Definition, 0, len(active))
	for _, zone := range active {
		def, err := zones.Export(zone)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ProcessPosition evaluates one report against the active zones and applies
// it to the vehicle's occupancy state. Blocks while the vehicle's lane is
// saturated; returns once the report has been applied and every resulting
// event emitted.
func (e *Engine) ProcessPosition(ctx context.Context, p geofence.Position) error {
	mSuccess := metrics.GetOrRegisterGauge(`Engine.ProcessPosition.Success`, nil)
	mError := metrics.GetOrRegisterGauge(`Engine.ProcessPosition.Error`, nil)

	if err := p.Validate(); err != nil {
		mError.Update(1)
		return err
	}

	matched := e.evaluator.Evaluate(p)
	if err := e.supervisor.Submit(ctx, p, matched); err != nil {
		mError.Update(1)
		return err
	}
	mSuccess.Update(1)
	return nil
}

// ProcessBatch applies an ordered run of reports for one vehicle. The whole
// batch is validated before any report is applied: every report must carry
// the given vehicle id and timestamps must be non-decreasing within the
// batch. A report repeating the previous timestamp is absorbed as a
// duplicate delivery. A batch that fails validation changes nothing.
func (e *Engine) ProcessBatch(ctx context.Context, vehicleID string, batch []geofence.Position) error {
	if vehicleID == "" {
		return errors.Wrap(fault.ErrValidation, "vehicle id cannot be empty")
	}

	for i, p := range batch {
		if p.VehicleID != vehicleID {
			return errors.Wrapf(fault.ErrValidation, "position %d belongs to %s, not %s", i, p.VehicleID, vehicleID)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "position %d", i)
		}
		if i > 0 && p.Timestamp < batch[i-1].Timestamp {
			return errors.Wrapf(fault.ErrValidation, "position %d is before position %d", i, i-1)
		}
	}

	for i, p := range batch {
		matched := e.evaluator.Evaluate(p)
		if err := e.supervisor.Submit(ctx, p, matched); err != nil {
			return errors.Wrapf(err, "position %d", i)
		}
	}
	return nil
}

// Snapshot reports a vehicle's current occupancy and aggregate status. The
// query runs through the vehicle's lane, so it reflects every report
// submitted before it.
func (e *Engine) Snapshot(ctx context.Context, vehicleID string) (occupancy.State, error) {
	if vehicleID == "" {
		return occupancy.State{}, errors.Wrap(fault.ErrValidation, "vehicle id cannot be empty")
	}
	return e.supervisor.Snapshot(ctx, vehicleID)
}

// Shutdown stops the lanes and the index rebuild timer. In-flight reports
// finish; new submissions fail with ErrShutdown.
func (e *Engine) Shutdown() {
	log.WithFields(log.Fields{"Method": "Shutdown"}).Info("stopping compliance engine")
	e.cancel()
	e.supervisor.Shutdown()
}

// SetLoggingLevel applies the configured level to the service logger.
func SetLoggingLevel(loggingLevel string) {
	switch strings.ToLower(loggingLevel) {
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "trace":
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
