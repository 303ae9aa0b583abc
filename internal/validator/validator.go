// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package validator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/driftback/driftback/internal/check"
)

// Error reports that a specific raw value was rejected by a validator. The
// schema layer wraps it with the section and option being validated.
type Error struct {
	// Reason is the human-readable rejection reason.
	Reason string

	// Value is the offending value as received by the validator.
	Value any
}

func (e *Error) Error() string { return e.Reason }

// Errorf constructs a validation Error for the given value.
func Errorf(value any, format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...), Value: value}
}

// Validator converts raw configuration text into a typed value and back.
// Implementations are stateless beyond the parameters bound from their check
// declaration and are safe to reuse across many validations.
type Validator interface {
	// Normalize prepares a raw value for conversion. The default behavior
	// unquotes string input and passes any other type through unchanged;
	// validators that perform their own quote-aware tokenization override it
	// to see the raw text.
	Normalize(value any) any

	// Convert turns a normalized value into its typed representation.
	// Conversion is idempotent: feeding an already-converted value back in
	// returns it unchanged.
	Convert(value any) (any, error)

	// Format serializes a converted value back to configuration text.
	Format(value any) (string, error)
}

// Validate applies the full validation contract: Convert(Normalize(value)).
func Validate(v Validator, value any) (any, error) {
	return v.Convert(v.Normalize(value))
}

// Factory builds a validator bound to one check declaration's arguments.
// A factory fails when the declaration's arguments do not fit the validator
// (for example a non-integer min bound on an integer check).
type Factory func(c *check.Check) (Validator, error)

// Registry maps check names to validator factories. A Registry is safe for
// concurrent lookups; registration is expected to happen at process startup
// before any validation begins.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a named validator factory. Registering a duplicate name
// panics: that is a plugin wiring defect, not a user configuration error.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("validator %q already registered", name))
	}
	r.factories[name] = factory
}

// Load resolves the check's named validator and binds the declaration's
// arguments to it.
func (r *Registry) Load(c *check.Check) (Validator, error) {
	r.mu.RLock()
	factory, ok := r.factories[c.Name()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown validation check %q", c.Name())
	}
	v, err := factory(c)
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", c.Name(), err)
	}
	return v, nil
}

// Names returns the registered check names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry. Each configspec
// snapshots the default registry at construction so later plugin
// registrations cannot change the semantics of an already-built schema.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := NewRegistry()
	for name, factory := range r.factories {
		cp.factories[name] = factory
	}
	return cp
}

// defaultRegistry holds the built-in validators plus any validators
// registered by plugins at startup.
var defaultRegistry = NewRegistry()

// Register adds a validator factory to the process-wide default registry.
// Surrounding plugin-loading code calls this at startup to extend the check
// language with new names.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Default returns a snapshot of the process-wide registry.
func Default() *Registry {
	return defaultRegistry.Clone()
}
