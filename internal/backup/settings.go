// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"fmt"

	"github.com/driftback/driftback/internal/config"
	"github.com/driftback/driftback/internal/validation"
)

// SectionName is the section every backupset config must carry.
const SectionName = "driftback:backup"

// BaseSpec returns the schema for the [driftback:backup] section. Engine and
// hook plugins contribute their own sections on top of this before the
// strict validation pass.
func BaseSpec() *config.Configspec {
	return config.MustConfigspec(`
[driftback:backup]
plugin = string
auto-purge-failures = boolean(default=yes)
purge-policy = option("manual", "before-backup", "after-backup", default="after-backup")
backups-to-keep = integer(min=0, default=1)
estimation-method = option("plugin", "const", "factor", default="plugin")
estimated-size-factor = float(default=1.0)
estimated-size = bytes(default=None)
hooks = force_list(default=list())
log-level = log_level(default="info")
`)
}

// Settings is the typed view of a validated [driftback:backup] section.
type Settings struct {
	Plugin              string  `validate:"required"`
	AutoPurgeFailures   bool
	PurgePolicy         string  `validate:"oneof=manual before-backup after-backup"`
	BackupsToKeep       int64   `validate:"min=0"`
	EstimationMethod    string  `validate:"oneof=plugin const factor"`
	EstimatedSizeFactor float64 `validate:"gt=0"`
	EstimatedSize       int64   `validate:"min=0"`
	Hooks               []string
	LogLevel            int64
}

// SettingsFrom extracts Settings from a validated configuration tree.
func SettingsFrom(v *config.Validated) (*Settings, error) {
	section, ok := v.Section(SectionName)
	if !ok {
		return nil, fmt.Errorf("missing [%s] section", SectionName)
	}
	s := &Settings{
		Plugin:              section.Str("plugin"),
		AutoPurgeFailures:   section.Bool("auto-purge-failures"),
		PurgePolicy:         section.Str("purge-policy"),
		BackupsToKeep:       section.Int("backups-to-keep"),
		EstimationMethod:    section.Str("estimation-method"),
		EstimatedSizeFactor: section.Float("estimated-size-factor"),
		EstimatedSize:       section.Int("estimated-size"),
		Hooks:               section.List("hooks"),
		LogLevel:            section.Int("log-level"),
	}
	if err := validation.ValidateStruct(s); err != nil {
		return nil, fmt.Errorf("invalid backup settings: %w", err)
	}
	return s, nil
}

// EstimateAdjusted applies the configured estimation method to an engine's
// raw size estimate.
func (s *Settings) EstimateAdjusted(engineEstimate int64) int64 {
	switch s.EstimationMethod {
	case "const":
		return s.EstimatedSize
	case "factor":
		return int64(float64(engineEstimate) * s.EstimatedSizeFactor)
	default:
		return engineEstimate
	}
}
