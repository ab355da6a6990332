/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package zones

import (
	"encoding/json"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-gojsonschema"
	"github.com/pkg/errors"

	"github.com/deepseaguard/compliance-engine/pkg/fault"
)

// ZoneDefinitionSchema validates one zone definition document.
const ZoneDefinitionSchema = `{
	"type": "object",
	"required": ["zone_id", "zone_name", "zone_type", "max_duration_hours", "geometry"],
	"properties": {
		"zone_id": {
			"type": "string",
			"minLength": 1
		},
		"zone_name": {
			"type": "string"
		},
		"zone_type": {
			"type": "string",
			"enum": ["sensitive", "restricted", "protected"]
		},
		"max_duration_hours": {
			"type": "number",
			"minimum": 0,
			"exclusiveMinimum": true
		},
		"warning_threshold_percent": {
			"type": "number",
			"minimum": 0,
			"maximum": 100
		},
		"depth_min_meters": {
			"type": "number",
			"minimum": 0
		},
		"depth_max_meters": {
			"type": "number",
			"minimum": 0
		},
		"max_speed_meters_per_sec": {
			"type": "number",
			"minimum": 0,
			"exclusiveMinimum": true
		},
		"geometry": {
			"type": "object",
			"required": ["type", "coordinates"],
			"properties": {
				"type": {
					"type": "string",
					"enum": ["Polygon", "MultiPolygon"]
				},
				"coordinates": {
					"type": "array"
				}
			}
		}
	},
	"additionalProperties": false
}`

// ZoneBatchSchema validates a batch document: a non-empty array of zone
// definitions.
const ZoneBatchSchema = `{
	"type": "array",
	"minItems": 1,
	"items": ` + ZoneDefinitionSchema + `
}`

// validateSchemaRequest validates a json document body with the required json schema
func validateSchemaRequest(jsonBody []byte, schema string) (*gojsonschema.Result, error) {
	if len(jsonBody) == 0 {
		return nil, errors.Wrapf(fault.ErrValidation, "document body cannot be empty")
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(jsonBody)

	validatorResult, err := gojsonschema.Validate(schemaLoader, documentLoader)

	if err != nil {
		return nil, errors.Wrapf(fault.ErrValidation, err.Error())
	}

	return validatorResult, nil
}

// buildErrorsString concatenates schema errors into one readable message
func buildErrorsString(resultsErrors []gojsonschema.ResultError) string {
	var parts []string
	for _, err := range resultsErrors {
		// err.Field() is not set for "required" error
		var field string
		if property, ok := err.Details()["property"].(string); ok {
			field = property
		} else {
			field = err.Field()
		}
		parts = append(parts, field+": "+err.Description())
	}
	return strings.Join(parts, "; ")
}

// DecodeDefinitions schema-validates and decodes a batch document of zone
// definitions supplied by the administrative path.
func DecodeDefinitions(jsonBody []byte) ([]Definition, error) {
	result, err := validateSchemaRequest(jsonBody, ZoneBatchSchema)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, errors.Wrapf(fault.ErrValidation, "zone batch document failed schema validation: %s",
			buildErrorsString(result.Errors()))
	}

	var defs []Definition
	if err := json.Unmarshal(jsonBody, &defs); err != nil {
		return nil, errors.Wrapf(fault.ErrValidation, "problem unmarshalling zone batch: %s", err.Error())
	}
	return defs, nil
}

// DecodeDefinition schema-validates and decodes a single zone definition
// document.
func DecodeDefinition(jsonBody []byte) (Definition, error) {
	result, err := validateSchemaRequest(jsonBody, ZoneDefinitionSchema)
	if err != nil {
		return Definition{}, err
	}
	if !result.Valid() {
		return Definition{}, errors.Wrapf(fault.ErrValidation, "zone document failed schema validation: %s",
			buildErrorsString(result.Errors()))
	}

	var def Definition
	if err := json.Unmarshal(jsonBody, &def); err != nil {
		return Definition{}, errors.Wrapf(fault.ErrValidation, "problem unmarshalling zone document: %s", err.Error())
	}
	return def, nil
}

// Export renders a zone back into its definition document form, preserving
// ring ordering and hole structure.
func Export(zone *Zone) (Definition, error) {
	geometry, err := encodeGeometry(zone.Geometry)
	if err != nil {
		return Definition{}, err
	}

	def := Definition{
		ZoneID:   zone.ZoneID,
		Name:     zone.Name,
		Type:     string(zone.Type),
		Geometry: geometry,
	}
	for _, rule := range zone.Rules {
		switch rule.Kind {
		case RuleDuration:
			def.MaxDurationHours = rule.MaxDuration.Hours()
			def.WarningThresholdPercent = rule.WarningPercent
		case RuleDepth:
			depthMin, depthMax := rule.MinDepthMeters, rule.MaxDepthMeters
			def.DepthMinMeters = &depthMin
			if depthMax != 0 {
				def.DepthMaxMeters = &depthMax
			}
		case RuleSpeed:
			maxSpeed := rule.MaxSpeedMetersPerSec
			def.MaxSpeedMetersPerSec = &maxSpeed
		}
	}
	return def, nil
}
