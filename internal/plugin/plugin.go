// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package plugin

import "github.com/driftback/driftback/internal/config"

// Configurable is implemented by plugins that contribute a configspec
// fragment. The fragment is merged into the base configspec before the strict
// validation pass, so plugin options are checked with the same machinery as
// core options.
type Configurable interface {
	Plugin
	Configspec() *config.Configspec
}

// SpecFor returns the configspec fragment a plugin contributes, or nil when
// the plugin has no configuration.
func SpecFor(p Plugin) *config.Configspec {
	if c, ok := p.(Configurable); ok {
		return c.Configspec()
	}
	return nil
}
