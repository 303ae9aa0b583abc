// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrBackupNotFound is returned by catalog lookups that match no row.
var ErrBackupNotFound = errors.New("backup not found")

const catalogSchema = `
CREATE TABLE IF NOT EXISTS backups (
    id             TEXT PRIMARY KEY,
    backupset      TEXT NOT NULL,
    engine         TEXT NOT NULL,
    directory      TEXT NOT NULL,
    status         TEXT NOT NULL,
    start_time     INTEGER,
    stop_time      INTEGER,
    estimated_size INTEGER NOT NULL DEFAULT 0,
    real_size      INTEGER NOT NULL DEFAULT 0,
    message        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_backups_backupset ON backups(backupset, start_time);
`

// Catalog is the SQLite index of all backups across backupsets. The spool is
// the source of truth for data; the catalog is the source of truth for
// history and is rebuilt from node manifests when rows go missing.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// serialize writers; sqlite handles one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error { return c.db.Close() }

// Save inserts or replaces a backup row.
func (c *Catalog) Save(ctx context.Context, b *Backup) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO backups
    (id, backupset, engine, directory, status, start_time, stop_time,
     estimated_size, real_size, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    start_time = excluded.start_time,
    stop_time = excluded.stop_time,
    estimated_size = excluded.estimated_size,
    real_size = excluded.real_size,
    message = excluded.message`,
		b.ID, b.Backupset, b.Engine, b.Directory, string(b.Status),
		timeToUnix(b.StartTime), timeToUnix(b.StopTime),
		b.EstimatedSize, b.RealSize, b.Message)
	if err != nil {
		return fmt.Errorf("save backup %s: %w", b.ID, err)
	}
	return nil
}

// Get loads one backup by ID.
func (c *Catalog) Get(ctx context.Context, id string) (*Backup, error) {
	row := c.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	return b, err
}

// List returns all rows for a backupset, oldest start first. An empty
// backupset selects every row.
func (c *Catalog) List(ctx context.Context, backupset string) ([]*Backup, error) {
	query := selectColumns + ` ORDER BY backupset, start_time`
	args := []any{}
	if backupset != "" {
		query = selectColumns + ` WHERE backupset = ? ORDER BY start_time`
		args = append(args, backupset)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()
	var out []*Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Previous returns the most recent completed backup for a backupset.
func (c *Catalog) Previous(ctx context.Context, backupset string) (*Backup, error) {
	row := c.db.QueryRowContext(ctx, selectColumns+`
 WHERE backupset = ? AND status = ?
 ORDER BY start_time DESC LIMIT 1`, backupset, string(StatusCompleted))
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no completed backup for %s", ErrBackupNotFound, backupset)
	}
	return b, err
}

// Delete removes a row by ID.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	return nil
}

// Rebuild reconciles catalog rows with the spool: every node whose manifest
// is readable but has no catalog row is re-inserted. Returns the number of
// rows recovered.
func (c *Catalog) Rebuild(ctx context.Context, spool *Spool) (int, error) {
	backupsets, err := spool.Backupsets()
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, backupset := range backupsets {
		nodes, err := spool.List(backupset)
		if err != nil {
			return recovered, err
		}
		for _, node := range nodes {
			manifest, err := ReadManifest(node)
			if err != nil || manifest.Backup == nil {
				continue
			}
			if _, err := c.Get(ctx, manifest.Backup.ID); err == nil {
				continue
			}
			if err := c.Save(ctx, manifest.Backup); err != nil {
				return recovered, err
			}
			recovered++
		}
	}
	return recovered, nil
}

const selectColumns = `
SELECT id, backupset, engine, directory, status, start_time, stop_time,
       estimated_size, real_size, message
  FROM backups`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackup(row rowScanner) (*Backup, error) {
	var b Backup
	var status string
	var start, stop int64
	err := row.Scan(&b.ID, &b.Backupset, &b.Engine, &b.Directory, &status,
		&start, &stop, &b.EstimatedSize, &b.RealSize, &b.Message)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.StartTime = unixToTime(start)
	b.StopTime = unixToTime(stop)
	return &b, nil
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func unixToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
