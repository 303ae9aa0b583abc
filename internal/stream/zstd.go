// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package stream

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

type zstdPlugin struct {
	level int
}

func (*zstdPlugin) Name() string    { return "zstd" }
func (*zstdPlugin) Summary() string { return "zstandard compression" }
func (*zstdPlugin) Ext() string     { return ".zst" }

func (p *zstdPlugin) setLevel(level int) { p.level = level }

func (p *zstdPlugin) Writer(path string) (io.WriteCloser, error) {
	f, err := os.Create(path + p.Ext())
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(p.level)))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &filterWriter{compressor: zw, file: f}, nil
}

func (p *zstdPlugin) Reader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path + p.Ext())
	if err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &filterReader{decompressor: zr.IOReadCloser(), file: f}, nil
}
