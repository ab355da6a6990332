/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package config

import (
	"fmt"

	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/configuration"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type (
	variables struct {
		ServiceName, LoggingLevel string

		// GapGracePeriodSeconds is the longest telemetry silence tolerated
		// before an exit is inferred retroactively at the grace boundary.
		// The default is 30 minutes, a small multiple of the expected
		// 5-10 minute AUV telemetry interval; operators running sparser
		// schedules must raise it, since it changes compliance outcomes.
		GapGracePeriodSeconds int

		// DefaultWarningThresholdPercent applies to duration rules whose zone
		// definition does not carry its own threshold.
		DefaultWarningThresholdPercent float64

		// DuplicateZonePolicy is "reject" or "overwrite" for zone loads that
		// reuse an existing zone id.
		DuplicateZonePolicy string

		LaneCount     int
		LaneQueueSize int

		// IndexRebuildIntervalSeconds bounds spatial index staleness when
		// zone mutations are batched. Zero disables the periodic rebuild;
		// every mutation still rebuilds synchronously.
		IndexRebuildIntervalSeconds int
	}
)

// AppConfig exports all config variables
var AppConfig variables

// InitConfig loads application variables
func InitConfig() error {
	AppConfig = variables{}

	config, err := configuration.NewConfiguration()
	if err != nil {
		return errors.Wrapf(err, "Unable to load config variables: %s", err.Error())
	}

	AppConfig.ServiceName = getOrDefaultString(config, "serviceName", "compliance-engine")
	AppConfig.LoggingLevel = getOrDefaultString(config, "loggingLevel", "debug")

	AppConfig.GapGracePeriodSeconds = getOrDefaultInt(config, "gapGracePeriodSeconds", 1800)
	if AppConfig.GapGracePeriodSeconds <= 0 {
		return fmt.Errorf("GapGracePeriodSeconds should be greater than 0! GapGracePeriodSeconds: %d", AppConfig.GapGracePeriodSeconds)
	}

	AppConfig.DefaultWarningThresholdPercent = float64(getOrDefaultInt(config, "defaultWarningThresholdPercent", 80))
	if AppConfig.DefaultWarningThresholdPercent <= 0 || AppConfig.DefaultWarningThresholdPercent >= 100 {
		return fmt.Errorf("DefaultWarningThresholdPercent should be between 0 and 100 exclusive! DefaultWarningThresholdPercent: %f", AppConfig.DefaultWarningThresholdPercent)
	}

	AppConfig.DuplicateZonePolicy = getOrDefaultString(config, "duplicateZonePolicy", "reject")
	if AppConfig.DuplicateZonePolicy != "reject" && AppConfig.DuplicateZonePolicy != "overwrite" {
		return fmt.Errorf("DuplicateZonePolicy should be reject or overwrite! DuplicateZonePolicy: %s", AppConfig.DuplicateZonePolicy)
	}

	AppConfig.LaneCount = getOrDefaultInt(config, "laneCount", 8)
	if AppConfig.LaneCount <= 0 {
		return fmt.Errorf("LaneCount should be greater than 0! LaneCount: %d", AppConfig.LaneCount)
	}

	AppConfig.LaneQueueSize = getOrDefaultInt(config, "laneQueueSize", 64)
	if AppConfig.LaneQueueSize <= 0 {
		return fmt.Errorf("LaneQueueSize should be greater than 0! LaneQueueSize: %d", AppConfig.LaneQueueSize)
	}

	AppConfig.IndexRebuildIntervalSeconds = getOrDefaultInt(config, "indexRebuildIntervalSeconds", 300)
	if AppConfig.IndexRebuildIntervalSeconds < 0 {
		return fmt.Errorf("IndexRebuildIntervalSeconds should not be negative! IndexRebuildIntervalSeconds: %d", AppConfig.IndexRebuildIntervalSeconds)
	}

	return nil
}

func getOrDefaultString(config *configuration.Configuration, path string, defaultValue string) string {
	value, err := config.GetString(path)
	if err != nil {
		log.Debugf("%s was missing from configuration, setting to default value of %s", path, defaultValue)
		return defaultValue
	}
	return value
}

func getOrDefaultInt(config *configuration.Configuration, path string, defaultValue int) int {
	value, err := config.GetInt(path)
	if err != nil {
		log.Debugf("%s was missing from configuration, setting to default value of %d", path, defaultValue)
		return defaultValue
	}
	return value
}
