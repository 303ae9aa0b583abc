// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Command driftback runs pluggable backup jobs described by ini-style
// configuration files whose schema is declared with check expressions.
//
// Usage:
//
//	driftback [global flags] <command> [command flags] [args]
//
// Commands:
//
//	backup        run one or more backupset configs
//	purge         apply retention to a backupset
//	list-backups  show catalog contents
//	list-plugins  show registered plugins
//	mkconfig      print a default config for an engine
//	validate      check a config file without running it
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/driftback/driftback/internal/backup"
	"github.com/driftback/driftback/internal/config"
	"github.com/driftback/driftback/internal/logging"
	"github.com/driftback/driftback/internal/plugin"
)

const usage = `usage: driftback [flags] <command> [args]

commands:
  backup <config|set>...  run backup jobs (bare names resolve in config-dir)
  purge <backupset>       apply retention to a backupset (reports only, unless --execute)
  list-backups [set]      show catalog contents
  list-plugins            show registered plugins
  mkconfig <engine>       print a default config for an engine
  validate <config>       check a config file without running it

flags:
`

type globalOptions struct {
	logLevel  string
	configDir string
	spoolDir  string
	catalog   string
}

func main() {
	var opts globalOptions
	flag.StringVar(&opts.logLevel, "log-level", "info", "log verbosity (debug, info, warn, error)")
	flag.StringVar(&opts.configDir, "config-dir", "/etc/driftback", "directory of backupset configs")
	flag.StringVar(&opts.spoolDir, "spool-dir", "/var/spool/driftback", "backup spool directory")
	flag.StringVar(&opts.catalog, "catalog", "", "catalog database path (default <spool-dir>/catalog.db)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.Init(logging.Config{Level: opts.logLevel, Format: "console"})

	if opts.catalog == "" {
		opts.catalog = filepath.Join(opts.spoolDir, "catalog.db")
	}
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "backup":
		err = cmdBackup(ctx, opts, rest)
	case "purge":
		err = cmdPurge(ctx, opts, rest)
	case "list-backups":
		err = cmdListBackups(ctx, opts, rest)
	case "list-plugins":
		err = cmdListPlugins()
	case "mkconfig":
		err = cmdMkconfig(rest)
	case "validate":
		err = cmdValidate(rest)
	default:
		fmt.Fprintf(os.Stderr, "driftback: unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logging.Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func openStores(opts globalOptions) (*backup.Spool, *backup.Catalog, error) {
	spool, err := backup.OpenSpool(opts.spoolDir)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := backup.OpenCatalog(opts.catalog)
	if err != nil {
		return nil, nil, err
	}
	return spool, catalog, nil
}

// backupsetName derives the job name from its config filename.
func backupsetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveConfig accepts either a path to a config file or a bare backupset
// name, which is looked up as <config-dir>/<name>.conf.
func resolveConfig(opts globalOptions, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	if filepath.Ext(arg) == "" && filepath.Base(arg) == arg {
		return filepath.Join(opts.configDir, arg+".conf")
	}
	return arg
}

func cmdBackup(ctx context.Context, opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "validate and walk the engine without writing data")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("backup: at least one config file required")
	}

	spool, catalog, err := openStores(opts)
	if err != nil {
		return err
	}
	defer catalog.Close()
	controller := &backup.Controller{Spool: spool, Catalog: catalog}

	var failures int
	for _, arg := range fs.Args() {
		path := resolveConfig(opts, arg)
		raw, err := config.ReadFile(path)
		if err != nil {
			logging.Err(err).Str("config", path).Msg("cannot read config")
			failures++
			continue
		}
		b, err := controller.Run(ctx, backupsetName(path), raw, backup.RunOptions{DryRun: *dryRun})
		if err != nil {
			logging.Err(err).Str("config", path).Msg("backup failed")
			failures++
			continue
		}
		if !*dryRun {
			fmt.Printf("%s: %s (%s)\n", b.Backupset, b.Status, b.Directory)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d jobs failed", failures, fs.NArg())
	}
	return nil
}

func cmdPurge(ctx context.Context, opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	keep := fs.Int("keep", 0, "number of most recent completed backups to retain")
	all := fs.Bool("all", false, "purge every backup in the set")
	failed := fs.Bool("failed", true, "also purge failed backups")
	execute := fs.Bool("execute", false, "delete the condemned backups instead of only reporting them")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("purge: exactly one backupset required")
	}
	if *all {
		*keep = 0
		*failed = true
	}

	spool, catalog, err := openStores(opts)
	if err != nil {
		return err
	}
	defer catalog.Close()

	purger := &backup.Purger{Spool: spool, Catalog: catalog}
	purged, err := purger.Purge(ctx, fs.Arg(0), backup.RetentionPolicy{
		Keep:        *keep,
		PurgeFailed: *failed,
		DryRun:      !*execute,
	})
	if err != nil {
		return err
	}
	if !*execute {
		fmt.Printf("would purge %d backup(s) from %s; re-run with --execute to delete\n",
			len(purged), fs.Arg(0))
		return nil
	}
	fmt.Printf("purged %d backup(s) from %s\n", len(purged), fs.Arg(0))
	return nil
}

func cmdListBackups(ctx context.Context, opts globalOptions, args []string) error {
	backupset := ""
	if len(args) > 0 {
		backupset = args[0]
	}
	spool, catalog, err := openStores(opts)
	if err != nil {
		return err
	}
	defer catalog.Close()

	// pick up nodes whose rows were lost
	if _, err := catalog.Rebuild(ctx, spool); err != nil {
		logging.Err(err).Msg("catalog rebuild failed")
	}

	rows, err := catalog.List(ctx, backupset)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no backups")
		return nil
	}
	for _, b := range rows {
		fmt.Printf("%-20s %-10s %-10s %19s %s\n",
			b.Backupset, b.Engine, b.Status,
			b.StartTime.Format("2006-01-02 15:04:05"), b.Directory)
	}
	return nil
}

func cmdListPlugins() error {
	reg := plugin.Default()
	for _, namespace := range reg.Namespaces() {
		fmt.Printf("%s:\n", namespace)
		for _, p := range reg.Iterate(namespace) {
			fmt.Printf("  %-12s %s\n", p.Name(), p.Summary())
		}
	}
	return nil
}

func cmdMkconfig(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("mkconfig: exactly one engine name required")
	}
	engineName := args[0]
	engine, err := backup.LoadEngine(engineName)
	if err != nil {
		return err
	}

	spec := backup.BaseSpec()
	if fragment := plugin.SpecFor(engine); fragment != nil {
		if err := spec.Merge(fragment); err != nil {
			return err
		}
	}

	// pin the plugin option to the chosen engine, then render the spec as
	// a skeleton so required engine options appear as blank lines to fill
	// in rather than failing validation
	seed := config.MustConfigspec(fmt.Sprintf(
		"[%s]\nplugin = string(default=%q)\n", backup.SectionName, engineName))
	if err := spec.Merge(seed); err != nil {
		return err
	}
	skeleton, err := spec.Skeleton()
	if err != nil {
		return fmt.Errorf("mkconfig %s: %w", engineName, err)
	}
	fmt.Print(skeleton)
	return nil
}

func cmdValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("validate: exactly one config file required")
	}
	raw, err := config.ReadFile(args[0])
	if err != nil {
		return err
	}
	if _, _, err := backup.ValidateConfig(raw); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Printf("%s: ok\n", args[0])
	return nil
}
