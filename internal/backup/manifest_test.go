// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	spool, err := OpenSpool(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	node, err := spool.Add("set1")
	if err != nil {
		t.Fatal(err)
	}
	return node
}

func TestManifestRoundTrip(t *testing.T) {
	node := newTestNode(t)
	b := NewBackup("set1", "noop")
	b.Start()
	b.Finish(nil)

	in := &Manifest{Backup: b, RawConfig: "[driftback:backup]\nplugin = noop\n"}
	if err := WriteManifest(node, in); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	out, err := ReadManifest(node)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if out.Backup.ID != b.ID {
		t.Errorf("ID = %q, want %q", out.Backup.ID, b.ID)
	}
	if out.Backup.Status != StatusCompleted {
		t.Errorf("Status = %q", out.Backup.Status)
	}
	if out.RawConfig != in.RawConfig {
		t.Errorf("RawConfig = %q", out.RawConfig)
	}
}

func TestWriteManifest_NoPartialFile(t *testing.T) {
	node := newTestNode(t)
	if err := WriteManifest(node, &Manifest{Backup: NewBackup("set1", "noop")}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(node.Path)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestNodeChecksum_Deterministic(t *testing.T) {
	node := newTestNode(t)
	writeData(t, node, "a.sql", "create table t (id int);")
	writeData(t, node, "b.sql", "insert into t values (1);")

	first, err := node.Checksum()
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	second, err := node.Checksum()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("checksum not stable: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected hex sha256, got %q", first)
	}
}

func TestNodeChecksum_DetectsChanges(t *testing.T) {
	node := newTestNode(t)
	writeData(t, node, "dump", "payload")
	before, err := node.Checksum()
	if err != nil {
		t.Fatal(err)
	}

	writeData(t, node, "dump", "tampered")
	after, err := node.Checksum()
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("checksum unchanged after content change")
	}

	// A rename with identical content must also change the digest.
	if err := os.Rename(
		filepath.Join(node.DataDir(), "dump"),
		filepath.Join(node.DataDir(), "renamed"),
	); err != nil {
		t.Fatal(err)
	}
	renamed, err := node.Checksum()
	if err != nil {
		t.Fatal(err)
	}
	if renamed == after {
		t.Error("checksum unchanged after rename")
	}
}

func TestVerifyNode(t *testing.T) {
	node := newTestNode(t)
	writeData(t, node, "dump", "payload")

	sum, err := node.Checksum()
	if err != nil {
		t.Fatal(err)
	}
	m := &Manifest{Backup: NewBackup("set1", "noop"), Checksum: sum}
	if err := WriteManifest(node, m); err != nil {
		t.Fatal(err)
	}

	if err := VerifyNode(node); err != nil {
		t.Errorf("VerifyNode() on intact node: %v", err)
	}

	writeData(t, node, "dump", "corrupted")
	err = VerifyNode(node)
	if err == nil {
		t.Fatal("VerifyNode() should fail after tampering")
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifyNode_NoChecksum(t *testing.T) {
	node := newTestNode(t)
	if err := WriteManifest(node, &Manifest{Backup: NewBackup("set1", "noop")}); err != nil {
		t.Fatal(err)
	}
	if err := VerifyNode(node); err != nil {
		t.Errorf("VerifyNode() without checksum should pass: %v", err)
	}
}

func writeData(t *testing.T, node *Node, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(node.DataDir(), name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
