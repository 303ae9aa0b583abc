// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey int

const (
	jobIDKey contextKey = iota
	loggerKey
)

// NewJobID generates a fresh identifier for correlating all log lines of one
// backup run.
func NewJobID() string {
	return uuid.NewString()
}

// ContextWithJobID attaches a job ID to the context.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// ContextWithNewJobID attaches a freshly generated job ID.
func ContextWithNewJobID(ctx context.Context) context.Context {
	return ContextWithJobID(ctx, NewJobID())
}

// JobIDFromContext returns the job ID, or "" when none is set.
func JobIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(jobIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithLogger attaches a specific logger to the context. Downstream
// code retrieves it with Ctx, so job-scoped fields follow the work without
// threading a logger through every signature.
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the context's logger, falling back to the global
// logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger enriched with the context's job ID:
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Str("engine", name).Msg("starting")
func Ctx(ctx context.Context) zerolog.Logger {
	logger := LoggerFromContext(ctx)
	if id := JobIDFromContext(ctx); id != "" {
		logger = logger.With().Str("job_id", id).Logger()
	}
	return logger
}

// WithComponent returns a child of the global logger tagged with a component
// name.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
