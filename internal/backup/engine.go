// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/driftback/driftback/internal/config"
	"github.com/driftback/driftback/internal/logging"
	"github.com/driftback/driftback/internal/plugin"
	"github.com/driftback/driftback/internal/stream"
)

// Context carries everything an engine needs for one run: the catalog row,
// the fully validated configuration, the spool node to write into, and a
// logger scoped to the job.
type Context struct {
	Backup *Backup
	Config *config.Validated
	Node   *Node
	Log    zerolog.Logger
}

// Engine is the contract backup plugins implement. The controller drives the
// sequence Bind, Setup, Estimate, then Backup or Dryrun, then Cleanup, and
// finally Release once the job record is finalized. Cleanup and Release run
// even when an earlier step failed.
type Engine interface {
	plugin.Plugin

	// Bind hands the engine its run context before any other call.
	Bind(ec *Context) error

	// Setup prepares the engine: connection checks, path checks.
	Setup(ctx context.Context) error

	// Estimate reports the expected backup size in bytes.
	Estimate(ctx context.Context) (int64, error)

	// Backup writes the backup into the spool node's data directory.
	Backup(ctx context.Context) error

	// Dryrun goes through the motions without writing backup data.
	Dryrun(ctx context.Context) error

	// Cleanup tears down per-run engine resources.
	Cleanup(ctx context.Context) error

	// Release detaches the engine from the job after the run record is
	// finalized. The engine must not touch the spool node afterwards.
	Release() error
}

// LoadEngine instantiates the named backup engine from the plugin registry.
func LoadEngine(name string) (Engine, error) {
	p, err := plugin.Load(plugin.NamespaceEngine, name)
	if err != nil {
		return nil, err
	}
	engine, ok := p.(Engine)
	if !ok {
		return nil, fmt.Errorf("plugin %q is not a backup engine", name)
	}
	return engine, nil
}

func init() {
	plugin.Register(plugin.NamespaceEngine, "noop", func() plugin.Plugin { return &noopEngine{} })
	plugin.Register(plugin.NamespaceEngine, "command", func() plugin.Plugin { return &commandEngine{} })
}

// ---------------------------------------------------------------------------
// noop engine
// ---------------------------------------------------------------------------

// noopEngine writes an empty marker file. Useful for exercising the full
// job lifecycle in tests and for verifying spool and hook wiring.
type noopEngine struct {
	ec *Context
}

func (e *noopEngine) Name() string    { return "noop" }
func (e *noopEngine) Summary() string { return "no-op engine that records an empty backup" }

func (e *noopEngine) Bind(ec *Context) error {
	e.ec = ec
	return nil
}

func (e *noopEngine) Setup(context.Context) error { return nil }

func (e *noopEngine) Estimate(context.Context) (int64, error) { return 0, nil }

func (e *noopEngine) Backup(context.Context) error {
	path := filepath.Join(e.ec.Node.DataDir(), "empty")
	return os.WriteFile(path, nil, 0o644)
}

func (e *noopEngine) Dryrun(context.Context) error {
	e.ec.Log.Info().Msg("noop dryrun")
	return nil
}

func (e *noopEngine) Cleanup(context.Context) error { return nil }

func (e *noopEngine) Release() error {
	e.ec = nil
	return nil
}

// ---------------------------------------------------------------------------
// command engine
// ---------------------------------------------------------------------------

// commandEngine runs a configured command with its stdout captured into the
// spool node, compressed per the [compression] section. The command is
// declared with the cmdline check so shell-style quoting in the config file
// works without invoking a shell.
type commandEngine struct {
	ec       *Context
	argv     []string
	filename string
	filter   stream.Plugin
}

func (e *commandEngine) Name() string    { return "command" }
func (e *commandEngine) Summary() string { return "captures the output of an arbitrary command" }

func (e *commandEngine) Configspec() *config.Configspec {
	return config.MustConfigspec(`
[command]
run = cmdline
filename = string(default="output")
estimated-size = bytes(default="0")
`)
}

func (e *commandEngine) Bind(ec *Context) error {
	e.ec = ec
	section, ok := ec.Config.Section("command")
	if !ok {
		return fmt.Errorf("missing [command] section")
	}
	e.argv = section.List("run")
	e.filename = section.Str("filename")
	if len(e.argv) == 0 {
		return fmt.Errorf("[command] run must name a command")
	}
	filter, err := stream.Open(ec.Config)
	if err != nil {
		return fmt.Errorf("open stream filter: %w", err)
	}
	e.filter = filter
	return nil
}

func (e *commandEngine) Setup(context.Context) error {
	if _, err := exec.LookPath(e.argv[0]); err != nil {
		return fmt.Errorf("command %q not found: %w", e.argv[0], err)
	}
	return nil
}

func (e *commandEngine) Estimate(context.Context) (int64, error) {
	section, _ := e.ec.Config.Section("command")
	return section.Int("estimated-size"), nil
}

func (e *commandEngine) Backup(ctx context.Context) error {
	out, err := e.filter.Writer(filepath.Join(e.ec.Node.DataDir(), e.filename))
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdout = out
	cmd.Stderr = logging.Logger()
	e.ec.Log.Info().
		Strs("argv", e.argv).
		Str("compression", e.filter.Name()).
		Msg("running backup command")
	if err := cmd.Run(); err != nil {
		out.Close()
		return fmt.Errorf("command failed: %w", err)
	}
	return out.Close()
}

func (e *commandEngine) Dryrun(context.Context) error {
	e.ec.Log.Info().Strs("argv", e.argv).Msg("dryrun: would run backup command")
	return nil
}

func (e *commandEngine) Cleanup(context.Context) error { return nil }

func (e *commandEngine) Release() error {
	e.ec = nil
	e.argv = nil
	e.filter = nil
	return nil
}
