// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package util holds small formatting helpers shared across the framework:
// human-readable byte sizes, size-string parsing, and interval formatting
// for backup job summaries.
package util
