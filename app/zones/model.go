/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package zones

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
	"github.com/deepseaguard/compliance-engine/pkg/geo"
)

// ZoneType classifies a regulated maritime area.
type ZoneType string

const (
	TypeSensitive  ZoneType = "sensitive"
	TypeRestricted ZoneType = "restricted"
	TypeProtected  ZoneType = "protected"
)

// RuleKind discriminates the closed set of rule variants a zone may carry.
type RuleKind string

const (
	RuleDuration RuleKind = "duration"
	RuleDepth    RuleKind = "depth"
	RuleSpeed    RuleKind = "speed"
)

// Rule is a tagged variant; Kind selects which fields are meaningful.
type Rule struct {
	Kind RuleKind

	// duration rule
	MaxDuration    time.Duration
	WarningPercent float64

	// depth rule; MaxDepthMeters of zero means no upper bound
	MinDepthMeters float64
	MaxDepthMeters float64

	// speed rule
	MaxSpeedMetersPerSec float64
}

// Zone is a validated zone definition held by the store. Geometry is a set of
// polygon parts; a position is inside the zone when any part contains it.
type Zone struct {
	ZoneID   string
	Name     string
	Type     ZoneType
	Geometry []geo.Polygon
	Rules    []Rule

	// BBox covers every part, precomputed for the spatial index.
	BBox geo.BBox
}

// Contains runs the exact containment test over all parts.
func (z *Zone) Contains(pt geo.Point) bool {
	for _, part := range z.Geometry {
		if part.Contains(pt) {
			return true
		}
	}
	return false
}

// DurationRule returns the zone's duration rule, or nil if it has none.
func (z *Zone) DurationRule() *Rule {
	for i := range z.Rules {
		if z.Rules[i].Kind == RuleDuration {
			return &z.Rules[i]
		}
	}
	return nil
}

func (z *Zone) computeBBox() {
	box := z.Geometry[0].BBox()
	for _, part := range z.Geometry[1:] {
		box.Extend(part.BBox())
	}
	z.BBox = box
}

func (z *Zone) validate() error {
	if z.ZoneID == "" {
		return errors.Wrap(fault.ErrValidation, "zone id cannot be empty")
	}
	switch z.Type {
	case TypeSensitive, TypeRestricted, TypeProtected:
	default:
		return errors.Wrapf(fault.ErrValidation, "unknown zone type %q", z.Type)
	}
	if len(z.Geometry) == 0 {
		return errors.Wrap(fault.ErrValidation, "zone has no geometry")
	}
	for i, part := range z.Geometry {
		if err := part.Validate(); err != nil {
			return errors.Wrapf(err, "geometry part %d", i)
		}
	}
	if len(z.Rules) == 0 {
		return errors.Wrap(fault.ErrConfiguration, "zone carries no rules")
	}
	for _, rule := range z.Rules {
		if err := rule.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r Rule) validate() error {
	switch r.Kind {
	case RuleDuration:
		if r.MaxDuration <= 0 {
			return errors.Wrap(fault.ErrConfiguration, "duration rule requires a positive maximum duration")
		}
		if r.WarningPercent <= 0 || r.WarningPercent >= 100 {
			return errors.Wrapf(fault.ErrConfiguration, "duration rule warning threshold %f%% must be between 0 and 100 exclusive", r.WarningPercent)
		}
	case RuleDepth:
		if r.MinDepthMeters < 0 {
			return errors.Wrap(fault.ErrConfiguration, "depth rule minimum cannot be negative")
		}
		if r.MaxDepthMeters != 0 && r.MaxDepthMeters < r.MinDepthMeters {
			return errors.Wrap(fault.ErrConfiguration, "depth rule maximum is below its minimum")
		}
	case RuleSpeed:
		if r.MaxSpeedMetersPerSec <= 0 {
			return errors.Wrap(fault.ErrConfiguration, "speed rule requires a positive maximum speed")
		}
	default:
		return errors.Wrapf(fault.ErrConfiguration, "unknown rule kind %q", r.Kind)
	}
	return nil
}

// Definition is the administrative input document for one zone, as supplied
// by the regulatory data path.
type Definition struct {
	ZoneID                  string          `json:"zone_id"`
	Name                    string          `json:"zone_name"`
	Type                    string          `json:"zone_type"`
	MaxDurationHours        float64         `json:"max_duration_hours"`
	WarningThresholdPercent float64         `json:"warning_threshold_percent,omitempty"`
	DepthMinMeters          *float64        `json:"depth_min_meters,omitempty"`
	DepthMaxMeters          *float64        `json:"depth_max_meters,omitempty"`
	MaxSpeedMetersPerSec    *float64        `json:"max_speed_meters_per_sec,omitempty"`
	Geometry                json.RawMessage `json:"geometry"`
}

// toZone validates and converts the definition. defaultWarningPercent fills
// in the warning threshold when the document does not carry one.
func (d Definition) toZone(defaultWarningPercent float64) (*Zone, error) {
	geometry, err := decodeGeometry(d.Geometry)
	if err != nil {
		return nil, errors.Wrapf(err, "zone %s", d.ZoneID)
	}

	warning := d.WarningThresholdPercent
	if warning == 0 {
		warning = defaultWarningPercent
	}

	zone := &Zone{
		ZoneID:   d.ZoneID,
		Name:     d.Name,
		Type:     ZoneType(d.Type),
		Geometry: geometry,
		Rules: []Rule{{
			Kind:           RuleDuration,
			MaxDuration:    time.Duration(d.MaxDurationHours * float64(time.Hour)),
			WarningPercent: warning,
		}},
	}

	if d.DepthMinMeters != nil || d.DepthMaxMeters != nil {
		depth := Rule{Kind: RuleDepth}
		if d.DepthMinMeters != nil {
			depth.MinDepthMeters = *d.DepthMinMeters
		}
		if d.DepthMaxMeters != nil {
			depth.MaxDepthMeters = *d.DepthMaxMeters
		}
		zone.Rules = append(zone.Rules, depth)
	}

	if d.MaxSpeedMetersPerSec != nil {
		zone.Rules = append(zone.Rules, Rule{
			Kind:                 RuleSpeed,
			MaxSpeedMetersPerSec: *d.MaxSpeedMetersPerSec,
		})
	}

	if err := zone.validate(); err != nil {
		return nil, errors.Wrapf(err, "zone %s", d.ZoneID)
	}
	zone.computeBBox()

	return zone, nil
}
