// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"context"
	"sort"

	"github.com/driftback/driftback/internal/logging"
)

// RetentionPolicy selects which backups of a backupset to remove.
type RetentionPolicy struct {
	// Keep is the number of most recent completed backups to retain.
	// Negative means keep everything.
	Keep int
	// PurgeFailed removes failed backups regardless of Keep.
	PurgeFailed bool
	// DryRun reports what would be purged without removing anything.
	DryRun bool
}

// Purger applies retention against the spool and catalog together, keeping
// the two stores consistent.
type Purger struct {
	Spool   *Spool
	Catalog *Catalog
	Bus     *Bus
}

// Purge applies the policy to one backupset and returns the purged rows.
func (p *Purger) Purge(ctx context.Context, backupset string, policy RetentionPolicy) ([]*Backup, error) {
	backups, err := p.Catalog.List(ctx, backupset)
	if err != nil {
		return nil, err
	}
	doomed := selectPurgeable(backups, policy)
	log := logging.WithComponent("retention")
	var purged []*Backup
	for _, b := range doomed {
		if policy.DryRun {
			log.Info().
				Str("backupset", backupset).
				Str("backup_id", b.ID).
				Str("directory", b.Directory).
				Msg("dryrun: would purge backup")
			purged = append(purged, b)
			continue
		}
		node := &Node{Backupset: b.Backupset, Path: b.Directory}
		if err := node.Remove(); err != nil {
			return purged, err
		}
		if err := p.Catalog.Delete(ctx, b.ID); err != nil {
			return purged, err
		}
		if p.Bus != nil {
			if err := p.Bus.Publish(EventPurgeBackup, &Event{Backup: b}); err != nil {
				log.Err(err).Str("backup_id", b.ID).Msg("purge hook failed")
			}
		}
		log.Info().
			Str("backupset", backupset).
			Str("backup_id", b.ID).
			Msg("purged backup")
		purged = append(purged, b)
	}
	return purged, nil
}

// selectPurgeable returns rows the policy condemns: failed rows when
// PurgeFailed is set, then completed rows beyond the Keep newest.
func selectPurgeable(backups []*Backup, policy RetentionPolicy) []*Backup {
	var completed, doomed []*Backup
	for _, b := range backups {
		switch {
		case b.Status == StatusFailed && policy.PurgeFailed:
			doomed = append(doomed, b)
		case b.Status == StatusCompleted:
			completed = append(completed, b)
		}
	}
	if policy.Keep < 0 {
		return doomed
	}
	sort.Slice(completed, func(i, j int) bool {
		if !completed[i].StartTime.Equal(completed[j].StartTime) {
			return completed[i].StartTime.After(completed[j].StartTime)
		}
		// start times are stored at second resolution; node names carry
		// a sequence suffix that keeps same-second runs ordered
		return completed[i].Directory > completed[j].Directory
	})
	if len(completed) > policy.Keep {
		doomed = append(doomed, completed[policy.Keep:]...)
	}
	return doomed
}
