// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package stream

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

type gzipPlugin struct {
	level int
}

func (*gzipPlugin) Name() string    { return "gzip" }
func (*gzipPlugin) Summary() string { return "gzip compression" }
func (*gzipPlugin) Ext() string     { return ".gz" }

func (p *gzipPlugin) setLevel(level int) { p.level = level }

func (p *gzipPlugin) Writer(path string) (io.WriteCloser, error) {
	f, err := os.Create(path + p.Ext())
	if err != nil {
		return nil, err
	}
	zw, err := gzip.NewWriterLevel(f, p.level)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	return &filterWriter{compressor: zw, file: f}, nil
}

func (p *gzipPlugin) Reader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path + p.Ext())
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	return &filterReader{decompressor: zr, file: f}, nil
}

// filterWriter closes the compressor before the file so buffered data and
// trailers are flushed.
type filterWriter struct {
	compressor io.WriteCloser
	file       *os.File
}

func (w *filterWriter) Write(p []byte) (int, error) { return w.compressor.Write(p) }

func (w *filterWriter) Close() error {
	if err := w.compressor.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

type filterReader struct {
	decompressor io.ReadCloser
	file         *os.File
}

func (r *filterReader) Read(p []byte) (int, error) { return r.decompressor.Read(p) }

func (r *filterReader) Close() error {
	if err := r.decompressor.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
