// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package stream provides the compression filter plugins engines write
// backup data through. Each plugin wraps plain files with a compressing
// writer and the matching decompressing reader, and advertises the file
// suffix it produces.
package stream

import (
	"fmt"
	"io"
	"os"

	"github.com/driftback/driftback/internal/config"
	"github.com/driftback/driftback/internal/plugin"
)

// Plugin opens files through a compression filter.
type Plugin interface {
	plugin.Plugin

	// Ext is the filename suffix this filter appends, e.g. ".gz".
	Ext() string

	// Writer opens path for writing through the filter. The suffix is
	// appended to path automatically.
	Writer(path string) (io.WriteCloser, error)

	// Reader opens a file written by Writer.
	Reader(path string) (io.ReadCloser, error)
}

// Configspec describes the [compression] section shared by all jobs.
func Configspec() *config.Configspec {
	return config.MustConfigspec(`
[compression]
method = option("raw", "gzip", "zstd", default="gzip")
level = integer(min=0, max=9, default=1)
`)
}

// Open returns the stream plugin selected by a validated [compression]
// section. A missing section selects the raw passthrough.
func Open(v *config.Validated) (Plugin, error) {
	method, level := "raw", int64(1)
	if section, ok := v.Section("compression"); ok {
		method = section.Str("method")
		level = section.Int("level")
	}
	p, err := plugin.Load(plugin.NamespaceStream, method)
	if err != nil {
		return nil, err
	}
	sp, ok := p.(Plugin)
	if !ok {
		return nil, fmt.Errorf("plugin %q is not a stream filter", method)
	}
	if leveled, ok := sp.(interface{ setLevel(int) }); ok {
		leveled.setLevel(int(level))
	}
	return sp, nil
}

func init() {
	plugin.Register(plugin.NamespaceStream, "raw", func() plugin.Plugin { return &rawPlugin{} })
	plugin.Register(plugin.NamespaceStream, "gzip", func() plugin.Plugin { return &gzipPlugin{level: 1} })
	plugin.Register(plugin.NamespaceStream, "zstd", func() plugin.Plugin { return &zstdPlugin{level: 1} })
}

// rawPlugin passes bytes through untouched.
type rawPlugin struct{}

func (rawPlugin) Name() string    { return "raw" }
func (rawPlugin) Summary() string { return "uncompressed passthrough" }
func (rawPlugin) Ext() string     { return "" }

func (rawPlugin) Writer(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (rawPlugin) Reader(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
