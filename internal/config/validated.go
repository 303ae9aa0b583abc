// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package config

import (
	"fmt"
	"strings"
)

// Validated is the typed result of checking a Config against a Configspec.
// It mirrors the section layout of the raw configuration but holds converted
// values rather than strings. Validation never mutates the raw Config; it
// always builds a fresh Validated tree.
type Validated struct {
	name     string
	order    []string
	values   map[string]any
	sections map[string]*Validated
}

// NewValidated returns an empty validated tree.
func NewValidated() *Validated {
	return &Validated{
		name:     rootName,
		values:   map[string]any{},
		sections: map[string]*Validated{},
	}
}

// Name returns the section name.
func (v *Validated) Name() string { return v.name }

// Keys returns value and section keys in insertion order.
func (v *Validated) Keys() []string {
	keys := make([]string, len(v.order))
	copy(keys, v.order)
	return keys
}

// Get returns the typed value of an option.
func (v *Validated) Get(key string) (any, bool) {
	val, ok := v.values[OptionKey(key)]
	return val, ok
}

// Set stores a typed value under the normalized key.
func (v *Validated) Set(key string, value any) {
	key = OptionKey(key)
	if _, exists := v.values[key]; !exists {
		if _, isSection := v.sections[key]; !isSection {
			v.order = append(v.order, key)
		}
	}
	v.values[key] = value
}

// Section returns the named validated subsection.
func (v *Validated) Section(key string) (*Validated, bool) {
	s, ok := v.sections[key]
	return s, ok
}

// EnsureSection returns the named subsection, creating it if absent.
func (v *Validated) EnsureSection(key string) *Validated {
	if s, ok := v.sections[key]; ok {
		return s
	}
	s := NewValidated()
	s.name = key
	v.sections[key] = s
	v.order = append(v.order, key)
	return s
}

// IsSection reports whether the key names a subsection.
func (v *Validated) IsSection(key string) bool {
	_, ok := v.sections[key]
	return ok
}

// Str returns the option as a string. Missing or differently typed options
// return the empty string.
func (v *Validated) Str(key string) string {
	if val, ok := v.Get(key); ok {
		if s, ok := val.(string); ok {
			return s
		}
		if val != nil {
			return fmt.Sprint(val)
		}
	}
	return ""
}

// Int returns the option as an int64.
func (v *Validated) Int(key string) int64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Float returns the option as a float64.
func (v *Validated) Float(key string) float64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// Bool returns the option as a boolean.
func (v *Validated) Bool(key string) bool {
	if val, ok := v.Get(key); ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// List returns the option as a string slice.
func (v *Validated) List(key string) []string {
	val, _ := v.Get(key)
	switch l := val.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

// String renders the validated tree in configuration file format, using the
// default string form of each value.
func (v *Validated) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v *Validated) write(b *strings.Builder) {
	for _, key := range v.order {
		if sub, ok := v.sections[key]; ok {
			fmt.Fprintf(b, "[%s]\n", key)
			sub.write(b)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(b, "%s = %v\n", key, v.values[key])
		}
	}
}
