// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package backup implements the backup lifecycle: spool management, the
// engine plugin contract, job orchestration, the backup catalog, and
// retention.
//
// A backup run flows through the controller:
//
//	┌────────────┐     ┌────────────┐     ┌────────────┐
//	│ Controller │────▶│   Engine   │────▶│   Spool    │
//	└────────────┘     └────────────┘     └────────────┘
//	       │                                     │
//	       ▼                                     ▼
//	┌────────────┐                        ┌────────────┐
//	│   Hooks    │                        │  Catalog   │
//	└────────────┘                        └────────────┘
//
// The controller validates the job configuration in two passes: first
// against the base schema with unknown sections tolerated, then strictly
// after the selected engine and subscribed hooks have contributed their own
// schema fragments.
package backup

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a backup.
type Status string

const (
	// StatusPending indicates the backup row exists but the engine has not
	// started.
	StatusPending Status = "pending"

	// StatusRunning indicates the engine is currently writing the backup.
	StatusRunning Status = "running"

	// StatusCompleted indicates the backup finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the backup failed and its spool node holds
	// partial data at best.
	StatusFailed Status = "failed"
)

// Backup is one catalog row: a single run of an engine against a backupset.
type Backup struct {
	ID            string    `json:"id"`
	Backupset     string    `json:"backupset"`
	Engine        string    `json:"engine"`
	Directory     string    `json:"directory"`
	Status        Status    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	StopTime      time.Time `json:"stop_time,omitempty"`
	EstimatedSize int64     `json:"estimated_size"`
	RealSize      int64     `json:"real_size"`
	Message       string    `json:"message,omitempty"`
}

// NewBackup returns a pending backup with a fresh ID.
func NewBackup(backupset, engine string) *Backup {
	return &Backup{
		ID:        uuid.NewString(),
		Backupset: backupset,
		Engine:    engine,
		Status:    StatusPending,
	}
}

// Start marks the backup running and stamps its start time.
func (b *Backup) Start() {
	b.Status = StatusRunning
	b.StartTime = time.Now().UTC()
}

// Finish stamps the stop time and final status. A non-nil error marks the
// backup failed and records the failure message.
func (b *Backup) Finish(err error) {
	b.StopTime = time.Now().UTC()
	if err != nil {
		b.Status = StatusFailed
		b.Message = err.Error()
		return
	}
	b.Status = StatusCompleted
}

// Duration is the wall time of the run; zero until the backup finishes.
func (b *Backup) Duration() time.Duration {
	if b.StartTime.IsZero() || b.StopTime.IsZero() {
		return 0
	}
	return b.StopTime.Sub(b.StartTime)
}
