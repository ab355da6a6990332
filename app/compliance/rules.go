/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package compliance

import (
	"fmt"
	"time"

	"github.com/deepseaguard/compliance-engine/app/zones"
)

// speed readings get a small tolerance band before escalating to violation,
// since speed is derived from position deltas and inherits their noise
const speedViolationFactor = 1.1

// Observation carries everything rule evaluation may need for one position.
// HasSpeed is false until a vehicle has two positions to derive speed from.
type Observation struct {
	Duration          time.Duration
	DepthMeters       float64
	SpeedMetersPerSec float64
	HasSpeed          bool
}

// Classify evaluates every rule variant the zone carries and reduces to the
// most severe status. The returned detail string describes the worst
// triggering rule; it is empty while compliant.
func Classify(zone *zones.Zone, obs Observation) (Status, string) {
	status := StatusCompliant
	detail := ""

	for _, rule := range zone.Rules {
		ruleStatus, ruleDetail := classifyRule(zone, rule, obs)
		if ruleStatus.Exceeds(status) {
			status = ruleStatus
			detail = ruleDetail
		}
	}

	return status, detail
}

func classifyRule(zone *zones.Zone, rule zones.Rule, obs Observation) (Status, string) {
	switch rule.Kind {

	case zones.RuleDuration:
		warningAt := time.Duration(float64(rule.MaxDuration) * rule.WarningPercent / 100)
		switch {
		case obs.Duration >= rule.MaxDuration:
			return StatusViolation, fmt.Sprintf("Exceeded maximum duration of %v in %s zone", rule.MaxDuration, zone.Type)
		case obs.Duration >= warningAt:
			return StatusWarning, fmt.Sprintf("Approaching time limit in %s zone", zone.Type)
		default:
			return StatusCompliant, ""
		}

	case zones.RuleDepth:
		if obs.DepthMeters < rule.MinDepthMeters {
			return StatusViolation, fmt.Sprintf("Depth %.1fm is above the %.1fm floor required in %s zone", obs.DepthMeters, rule.MinDepthMeters, zone.Type)
		}
		if rule.MaxDepthMeters != 0 && obs.DepthMeters > rule.MaxDepthMeters {
			return StatusViolation, fmt.Sprintf("Depth %.1fm exceeds the %.1fm ceiling in %s zone", obs.DepthMeters, rule.MaxDepthMeters, zone.Type)
		}
		return StatusCompliant, ""

	case zones.RuleSpeed:
		if !obs.HasSpeed {
			return StatusCompliant, ""
		}
		switch {
		case obs.SpeedMetersPerSec > rule.MaxSpeedMetersPerSec*speedViolationFactor:
			return StatusViolation, fmt.Sprintf("Speed %.1fm/s exceeds the %.1fm/s limit in %s zone", obs.SpeedMetersPerSec, rule.MaxSpeedMetersPerSec, zone.Type)
		case obs.SpeedMetersPerSec > rule.MaxSpeedMetersPerSec:
			return StatusWarning, fmt.Sprintf("Speed %.1fm/s is over the %.1fm/s limit in %s zone", obs.SpeedMetersPerSec, rule.MaxSpeedMetersPerSec, zone.Type)
		default:
			return StatusCompliant, ""
		}
	}

	return StatusCompliant, ""
}
