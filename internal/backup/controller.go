// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/driftback/driftback/internal/config"
	"github.com/driftback/driftback/internal/logging"
	"github.com/driftback/driftback/internal/stream"
	"github.com/driftback/driftback/internal/util"
)

// Controller orchestrates backup runs end to end: configuration validation,
// spool and catalog bookkeeping, hook dispatch, and engine execution.
type Controller struct {
	Spool   *Spool
	Catalog *Catalog
}

// RunOptions tune a single backup run.
type RunOptions struct {
	// DryRun drives the engine through its dryrun path and records
	// nothing in the spool or catalog.
	DryRun bool
}

// ValidateConfig performs the two-pass validation of one backupset
// configuration. The first pass checks the base schema while tolerating
// sections it does not know; the engine named by plugin= and every hook
// plugin then contribute their schema fragments, the [compression]
// section is claimed for the stream filters, and the merged spec
// validates the config strictly.
func ValidateConfig(raw *config.Config) (*config.Validated, *Settings, error) {
	base := BaseSpec()
	lenient, err := base.Validate(raw, config.ValidateOptions{IgnoreUnknownSections: true})
	if err != nil {
		return nil, nil, fmt.Errorf("base validation: %w", err)
	}
	settings, err := SettingsFrom(lenient)
	if err != nil {
		return nil, nil, err
	}

	engine, err := LoadEngine(settings.Plugin)
	if err != nil {
		return nil, nil, err
	}
	if err := mergeFragment(base, engine); err != nil {
		return nil, nil, err
	}
	for _, name := range settings.Hooks {
		hook, err := LoadHook(name)
		if err != nil {
			return nil, nil, err
		}
		if err := mergeFragment(base, hook); err != nil {
			return nil, nil, err
		}
	}
	if err := base.Merge(stream.Configspec()); err != nil {
		return nil, nil, fmt.Errorf("merge compression spec: %w", err)
	}

	validated, err := base.Validate(raw, config.ValidateOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("strict validation: %w", err)
	}
	return validated, settings, nil
}

func mergeFragment(spec *config.Configspec, p interface{ Name() string }) error {
	configurable, ok := p.(interface{ Configspec() *config.Configspec })
	if !ok {
		return nil
	}
	if fragment := configurable.Configspec(); fragment != nil {
		if err := spec.Merge(fragment); err != nil {
			return fmt.Errorf("merge %s spec: %w", p.Name(), err)
		}
	}
	return nil
}

// Run executes one backup job for a backupset.
func (c *Controller) Run(ctx context.Context, backupset string, raw *config.Config, opts RunOptions) (*Backup, error) {
	validated, settings, err := ValidateConfig(raw)
	if err != nil {
		return nil, err
	}

	engine, err := LoadEngine(settings.Plugin)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := engine.Release(); rerr != nil {
			logging.Err(rerr).Str("engine", settings.Plugin).Msg("engine release failed")
		}
	}()

	bus := NewBus()
	defer bus.Close()
	for _, name := range settings.Hooks {
		hook, err := LoadHook(name)
		if err != nil {
			return nil, err
		}
		if err := bus.Attach(ctx, hook); err != nil {
			return nil, err
		}
	}

	logging.SetSeverity(settings.LogLevel)

	lock, err := c.Spool.Lock(backupset)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	b := NewBackup(backupset, settings.Plugin)
	ctx = logging.ContextWithJobID(ctx, b.ID)
	jobLog := logging.Ctx(ctx)
	log := jobLog.With().
		Str("backupset", backupset).
		Str("engine", settings.Plugin).
		Logger()

	if opts.DryRun {
		return b, c.dryrun(ctx, engine, validated, b, log)
	}

	purger := &Purger{Spool: c.Spool, Catalog: c.Catalog, Bus: bus}
	if settings.PurgePolicy == "before-backup" {
		// Purge down to one less than the retention count so the set
		// holds backups-to-keep backups once this run completes.
		keep := int(settings.BackupsToKeep) - 1
		if keep < 0 {
			keep = 0
		}
		if _, err := purger.Purge(ctx, backupset, RetentionPolicy{Keep: keep}); err != nil {
			return nil, fmt.Errorf("before-backup purge: %w", err)
		}
	}

	node, err := c.Spool.Add(backupset)
	if err != nil {
		return nil, err
	}
	b.Directory = node.Path

	runErr := c.execute(ctx, engine, validated, b, node, bus, log)
	b.Finish(runErr)
	if size, err := node.Size(); err == nil {
		b.RealSize = size
	}
	manifest := &Manifest{Backup: b, RawConfig: raw.String()}
	if runErr == nil {
		if sum, err := node.Checksum(); err == nil {
			manifest.Checksum = sum
		} else {
			log.Err(err).Msg("checksum failed")
		}
	}
	if err := WriteManifest(node, manifest); err != nil {
		log.Err(err).Msg("manifest write failed")
	}
	if err := c.Catalog.Save(ctx, b); err != nil {
		log.Err(err).Msg("catalog update failed")
	}

	if runErr != nil {
		if err := bus.Publish(EventBackupFailure, &Event{Backup: b}); err != nil {
			log.Err(err).Msg("failure hook failed")
		}
		if settings.AutoPurgeFailures {
			if _, err := purger.Purge(ctx, backupset, RetentionPolicy{Keep: -1, PurgeFailed: true}); err != nil {
				log.Err(err).Msg("failed backup purge failed")
			}
		}
		return b, runErr
	}

	if err := bus.Publish(EventAfterBackup, &Event{Backup: b}); err != nil {
		log.Err(err).Msg("after-backup hook failed")
	}
	if settings.PurgePolicy == "after-backup" {
		if _, err := purger.Purge(ctx, backupset, RetentionPolicy{Keep: int(settings.BackupsToKeep)}); err != nil {
			log.Err(err).Msg("retention purge failed")
		}
	}
	log.Info().
		Int64("real_size", b.RealSize).
		Dur("duration", b.Duration()).
		Msg("backup completed")
	return b, nil
}

// execute drives the engine through its lifecycle inside an open spool node.
// Cleanup always runs, even when an earlier step failed.
func (c *Controller) execute(ctx context.Context, engine Engine, validated *config.Validated,
	b *Backup, node *Node, bus *Bus, log zerolog.Logger) (err error) {

	ec := &Context{Backup: b, Config: validated, Node: node, Log: log}
	if err := engine.Bind(ec); err != nil {
		return fmt.Errorf("bind engine: %w", err)
	}
	if err := engine.Setup(ctx); err != nil {
		return fmt.Errorf("engine setup: %w", err)
	}
	defer func() {
		if cerr := engine.Cleanup(ctx); cerr != nil {
			log.Err(cerr).Msg("engine cleanup failed")
			if err == nil {
				err = fmt.Errorf("engine cleanup: %w", cerr)
			}
		}
	}()

	if err := bus.Publish(EventBeforeBackup, &Event{Backup: b}); err != nil {
		return fmt.Errorf("before-backup hook: %w", err)
	}

	settings, err := SettingsFrom(validated)
	if err != nil {
		return err
	}
	estimate, err := engine.Estimate(ctx)
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	b.EstimatedSize = settings.EstimateAdjusted(estimate)
	if free, err := c.Spool.Capacity(); err == nil && b.EstimatedSize > free {
		return fmt.Errorf("estimated size %s exceeds free spool space %s",
			util.FormatBytes(b.EstimatedSize, 2), util.FormatBytes(free, 2))
	}

	b.Start()
	if err := c.Catalog.Save(ctx, b); err != nil {
		log.Err(err).Msg("catalog update failed")
	}
	log.Info().Int64("estimated_size", b.EstimatedSize).Msg("backup started")

	if err := engine.Backup(ctx); err != nil {
		return fmt.Errorf("engine backup: %w", err)
	}
	return nil
}

// dryrun validates and walks the engine lifecycle without writing anything.
func (c *Controller) dryrun(ctx context.Context, engine Engine, validated *config.Validated,
	b *Backup, log zerolog.Logger) (err error) {

	ec := &Context{Backup: b, Config: validated, Log: log}
	if err := engine.Bind(ec); err != nil {
		return fmt.Errorf("bind engine: %w", err)
	}
	if err := engine.Setup(ctx); err != nil {
		return fmt.Errorf("engine setup: %w", err)
	}
	defer func() {
		if cerr := engine.Cleanup(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("engine cleanup: %w", cerr)
		}
	}()
	if err := engine.Dryrun(ctx); err != nil {
		return fmt.Errorf("engine dryrun: %w", err)
	}
	log.Info().Msg("dryrun completed")
	return nil
}
