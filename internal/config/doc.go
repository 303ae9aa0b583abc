// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package config implements the ini-style configuration format read by the
// framework and the configspec schema that validates it.
//
// A Config is the raw, as-read section/option/string structure produced from
// a configuration file. A Configspec is the hierarchical, mergeable
// collection of check declarations organized by section and option name;
// validating a Config against a Configspec produces a Validated structure
// holding the typed values, leaving the raw Config untouched so the same
// input can be validated more than once (for example leniently against the
// base schema, then strictly after plugin schema fragments are merged in).
//
// Configuration syntax:
//
//	# comment
//	[section]
//	option = value
//	quoted = "value with # inside"
//	multi  = first
//	         continued
//	%include other.conf
//
// Option names are normalized by replacing underscores with dashes, so
// "auto_purge" and "auto-purge" refer to the same option.
package config
