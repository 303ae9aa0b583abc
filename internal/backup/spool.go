// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// ErrSpoolLocked is returned when another process holds a backupset's lock.
var ErrSpoolLocked = errors.New("backupset is locked by another process")

// nodeTimestamp names spool nodes so lexical order equals chronological
// order.
const nodeTimestamp = "20060102_150405"

// Spool is the on-disk backup store: one directory per backupset, one
// timestamped node per backup inside it.
type Spool struct {
	root string
}

// OpenSpool ensures the spool root exists and returns a handle to it.
func OpenSpool(root string) (*Spool, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}
	return &Spool{root: root}, nil
}

// Root returns the spool root directory.
func (s *Spool) Root() string { return s.root }

// Add creates a fresh timestamped node for a backupset. A suffix is appended
// when two backups start within the same second.
func (s *Spool) Add(backupset string) (*Node, error) {
	base := filepath.Join(s.root, backupset)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create backupset directory: %w", err)
	}
	stamp := time.Now().Format(nodeTimestamp)
	path := filepath.Join(base, stamp)
	for n := 1; ; n++ {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create spool node: %w", err)
		}
		path = filepath.Join(base, fmt.Sprintf("%s.%d", stamp, n))
	}
	node := &Node{Backupset: backupset, Path: path}
	if err := os.MkdirAll(node.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create node data directory: %w", err)
	}
	return node, nil
}

// List returns a backupset's nodes ordered oldest first.
func (s *Spool) List(backupset string) ([]*Node, error) {
	base := filepath.Join(s.root, backupset)
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backupset: %w", err)
	}
	var nodes []*Node
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		nodes = append(nodes, &Node{
			Backupset: backupset,
			Path:      filepath.Join(base, entry.Name()),
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Path < nodes[j].Path
	})
	return nodes, nil
}

// Backupsets lists backupset names present in the spool, sorted.
func (s *Spool) Backupsets() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list spool: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Capacity reports the free bytes on the filesystem backing the spool.
func (s *Spool) Capacity() (int64, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(s.root, &fs); err != nil {
		return 0, fmt.Errorf("statfs spool: %w", err)
	}
	return int64(fs.Bavail) * int64(fs.Bsize), nil
}

// Lock takes an exclusive advisory lock on a backupset so concurrent runs
// against the same set cannot interleave. The caller must call Unlock.
func (s *Spool) Lock(backupset string) (*Lock, error) {
	base := filepath.Join(s.root, backupset)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("lock backupset: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(base, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lockfile: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrSpoolLocked, backupset)
		}
		return nil, fmt.Errorf("flock: %w", err)
	}
	return &Lock{file: f}, nil
}

// Lock is a held backupset lock.
type Lock struct {
	file *os.File
}

// Unlock releases the lock. Safe to call once.
func (l *Lock) Unlock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("unlock: %w", err)
	}
	return l.file.Close()
}

// Node is one backup directory inside the spool. Engine data lives under
// DataDir; the manifest sits next to it.
type Node struct {
	Backupset string
	Path      string
}

// Name is the node's timestamped directory name.
func (n *Node) Name() string { return filepath.Base(n.Path) }

// DataDir is where the engine writes backup content.
func (n *Node) DataDir() string { return filepath.Join(n.Path, "data") }

// Size walks the node and totals file sizes.
func (n *Node) Size() (int64, error) {
	var total int64
	err := filepath.Walk(n.Path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size node: %w", err)
	}
	return total, nil
}

// Checksum hashes the node's data directory with SHA-256. Relative paths
// feed the hash alongside file contents, so renames and content changes are
// both detected. filepath.Walk visits entries in lexical order, which keeps
// the digest deterministic.
func (n *Node) Checksum() (string, error) {
	h := sha256.New()
	root := n.DataDir()
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00", rel)
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(h, f)
		f.Close()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("checksum node: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Remove deletes the node and everything in it.
func (n *Node) Remove() error {
	if err := os.RemoveAll(n.Path); err != nil {
		return fmt.Errorf("remove node: %w", err)
	}
	return nil
}
