// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package validator implements the typed-conversion side of the check DSL:
// a registry of named validators, each exposing normalize/convert/format
// operations with type-specific semantics.
//
// Every validator obeys the same contract: Validate(raw) is
// Convert(Normalize(raw)), and Format is the approximate inverse used when a
// validated configuration is serialized back to text. For every value a
// validator can produce via Convert, feeding Format's output back through
// Normalize and Convert reproduces an equal value.
//
// The built-in set covers boolean, integer, float, string, option, list,
// tuple, set, cmdline, log_level, percent and bytes checks. Plugins may
// register additional validators by name at process startup via Register.
package validator
