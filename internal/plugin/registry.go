// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package plugin keys every extensible behavior in the framework by a
// (namespace, name) pair. Backup engines, hook plugins, and stream filters
// all register factories here during init; lookup failures surface as
// ErrNotFound so callers can distinguish a missing plugin from a plugin
// that failed to load.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Namespaces used by the built-in plugin families.
const (
	NamespaceEngine = "driftback.engines"
	NamespaceHook   = "driftback.hooks"
	NamespaceStream = "driftback.stream"
)

// ErrNotFound is wrapped by Load when no plugin matches.
var ErrNotFound = errors.New("plugin not found")

// Plugin is the minimal contract every registered extension satisfies.
type Plugin interface {
	// Name is the registered plugin name, unique within its namespace.
	Name() string
	// Summary is a one-line human description for plugin listings.
	Summary() string
}

// Factory builds a fresh plugin instance per Load call.
type Factory func() Plugin

// Registry maps namespace and name to plugin factories.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{namespaces: map[string]map[string]Factory{}}
}

// Register adds a factory under (namespace, name). Registering the same pair
// twice panics: duplicate registrations are process wiring bugs, not runtime
// conditions.
func (r *Registry) Register(namespace, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.namespaces[namespace]
	if !ok {
		ns = map[string]Factory{}
		r.namespaces[namespace] = ns
	}
	if _, dup := ns[name]; dup {
		panic(fmt.Sprintf("plugin: duplicate registration %s/%s", namespace, name))
	}
	ns[name] = factory
}

// Load instantiates the named plugin.
func (r *Registry) Load(namespace, name string) (Plugin, error) {
	r.mu.RLock()
	factory, ok := r.namespaces[namespace][name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, name)
	}
	return factory(), nil
}

// Names lists registered plugin names in a namespace, sorted.
func (r *Registry) Names(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.namespaces[namespace]))
	for name := range r.namespaces[namespace] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces lists namespaces with at least one registration, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.namespaces))
	for ns := range r.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Iterate instantiates every plugin in a namespace, ordered by name.
func (r *Registry) Iterate(namespace string) []Plugin {
	names := r.Names(namespace)
	plugins := make([]Plugin, 0, len(names))
	for _, name := range names {
		p, err := r.Load(namespace, name)
		if err != nil {
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the process-wide registry.
func Register(namespace, name string, factory Factory) {
	defaultRegistry.Register(namespace, name, factory)
}

// Load instantiates a plugin from the process-wide registry.
func Load(namespace, name string) (Plugin, error) {
	return defaultRegistry.Load(namespace, name)
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
