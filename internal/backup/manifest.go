// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

const manifestName = "manifest.json"

// Manifest is the per-node record written next to the backup data. It lets
// the catalog rebuild a row for any node that survives a database loss.
type Manifest struct {
	Backup *Backup `json:"backup"`
	// RawConfig is the rendered configuration the run validated against,
	// kept for post-mortem reproduction of the job.
	RawConfig string `json:"raw_config,omitempty"`
	// Checksum is the SHA-256 digest of the node's data directory, taken
	// when the run finished.
	Checksum string `json:"checksum,omitempty"`
}

// VerifyNode recomputes a node's data checksum against its manifest.
// Returns an error when the digests differ; a manifest without a checksum
// verifies trivially.
func VerifyNode(node *Node) error {
	m, err := ReadManifest(node)
	if err != nil {
		return err
	}
	if m.Checksum == "" {
		return nil
	}
	sum, err := node.Checksum()
	if err != nil {
		return err
	}
	if sum != m.Checksum {
		return fmt.Errorf("node %s: checksum mismatch: manifest %s, data %s",
			node.Name(), m.Checksum, sum)
	}
	return nil
}

// WriteManifest stores the manifest atomically inside the node.
func WriteManifest(node *Node, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := filepath.Join(node.Path, manifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(node.Path, manifestName)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a node's manifest.
func ReadManifest(node *Node) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(node.Path, manifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
