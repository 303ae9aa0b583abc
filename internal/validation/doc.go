// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package validation provides struct validation using go-playground/validator
// v10. Typed settings structs extracted from validated configuration trees
// declare their constraints with `validate` tags; this package runs them
// through a shared validator instance and translates the failures into
// messages that name the offending field and constraint.
//
// The configuration layer already enforces per-option syntax and ranges.
// Struct validation is the second line: it catches presence and cross-field
// constraints that individual option checks cannot express.
//
// Example usage:
//
//	type Settings struct {
//	    Plugin        string `validate:"required"`
//	    BackupsToKeep int64  `validate:"min=0"`
//	}
//
//	if err := validation.ValidateStruct(&settings); err != nil {
//	    return fmt.Errorf("invalid backup settings: %w", err)
//	}
package validation
