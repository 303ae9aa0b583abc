// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if id := JobIDFromContext(ctx); id != "" {
		t.Errorf("expected empty job ID on bare context, got %q", id)
	}

	ctx = ContextWithJobID(ctx, "job-123")
	if id := JobIDFromContext(ctx); id != "job-123" {
		t.Errorf("expected job-123, got %q", id)
	}
}

func TestContextWithNewJobID(t *testing.T) {
	ctx := ContextWithNewJobID(context.Background())

	id := JobIDFromContext(ctx)
	if id == "" {
		t.Fatal("expected generated job ID")
	}

	other := JobIDFromContext(ContextWithNewJobID(context.Background()))
	if id == other {
		t.Error("expected distinct job IDs per context")
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	// A bare context falls back to the global logger rather than a zero
	// value that drops events.
	logger := LoggerFromContext(context.Background())
	if logger.GetLevel() != Logger().GetLevel() {
		t.Error("expected fallback to global logger")
	}
}

func TestCtxAddsJobID(t *testing.T) {
	var buf bytes.Buffer

	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithJobID(ctx, "job-456")

	logger := Ctx(ctx)
	logger.Info().Msg("scoped message")

	output := buf.String()
	if !strings.Contains(output, `"job_id":"job-456"`) {
		t.Errorf("expected job_id field, got: %s", output)
	}
	if !strings.Contains(output, "scoped message") {
		t.Errorf("expected message, got: %s", output)
	}
}

func TestCtxWithoutJobID(t *testing.T) {
	var buf bytes.Buffer

	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	logger := Ctx(ctx)
	logger.Info().Msg("plain message")

	output := buf.String()
	if strings.Contains(output, "job_id") {
		t.Errorf("expected no job_id field, got: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	logger := WithComponent("catalog")
	logger.Info().Msg("component message")

	output := buf.String()
	if !strings.Contains(output, `"component":"catalog"`) {
		t.Errorf("expected component field, got: %s", output)
	}
}
