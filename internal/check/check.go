// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package check

import (
	"fmt"
	"sort"
	"strings"
)

// Reserved keyword arguments stripped from every check during parsing. They
// parameterize the schema layer, not the validator named by the check.
const (
	keywordDefault = "default"
	keywordAliasOf = "aliasof"
)

// Check is the normalized, immutable result of parsing one check expression:
// the validator name, its positional and keyword arguments, an optional
// default value, and an optional alias target. A declared default of None is
// distinguishable from no default at all via HasDefault.
type Check struct {
	name    string
	args    []Value
	kwargs  map[string]Value
	def     Value
	hasDef  bool
	aliasOf string
	aliased bool
}

// Parse parses a check expression and returns its declaration.
func Parse(input string) (*Check, error) {
	name, args, kwargs, err := parseExpr(input)
	if err != nil {
		return nil, err
	}
	c := &Check{name: name, args: args, kwargs: kwargs}
	if def, ok := kwargs[keywordDefault]; ok {
		c.def = def
		c.hasDef = true
		delete(kwargs, keywordDefault)
	}
	if target, ok := kwargs[keywordAliasOf]; ok {
		c.aliasOf = target.Text()
		c.aliased = true
		delete(kwargs, keywordAliasOf)
	}
	return c, nil
}

// MustParse is Parse for statically known check expressions; it panics on a
// parse error. Built-in configspecs use it at package initialization.
func MustParse(input string) *Check {
	c, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("check: parse %q: %v", input, err))
	}
	return c
}

// Name returns the validator name this check dispatches to.
func (c *Check) Name() string { return c.name }

// Args returns the positional arguments in encounter order. The returned
// slice must not be modified.
func (c *Check) Args() []Value { return c.args }

// Kwarg returns the keyword argument with the given name.
func (c *Check) Kwarg(name string) (Value, bool) {
	v, ok := c.kwargs[name]
	return v, ok
}

// KwargNames returns the keyword argument names in sorted order.
func (c *Check) KwargNames() []string {
	names := make([]string, 0, len(c.kwargs))
	for name := range c.kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the declared default value. The second result is false
// when the check declared no default; a declared default of None returns
// (NullValue(), true).
func (c *Check) Default() (Value, bool) { return c.def, c.hasDef }

// AliasOf returns the name of the option this check aliases, if any.
func (c *Check) AliasOf() (string, bool) { return c.aliasOf, c.aliased }

// IsAlias reports whether this declaration aliases another option. Alias
// declarations are exempt from validator dispatch.
func (c *Check) IsAlias() bool { return c.aliased }

// Clone returns an independent copy of the declaration. Schema merges copy
// declarations rather than share them so that one schema fragment can never
// be mutated through another.
func (c *Check) Clone() *Check {
	cp := *c
	cp.args = make([]Value, len(c.args))
	copy(cp.args, c.args)
	cp.kwargs = make(map[string]Value, len(c.kwargs))
	for k, v := range c.kwargs {
		cp.kwargs[k] = v
	}
	return &cp
}

// String renders the declaration back into check-expression syntax.
func (c *Check) String() string {
	var parts []string
	for _, a := range c.args {
		parts = append(parts, a.String())
	}
	for _, name := range c.KwargNames() {
		parts = append(parts, fmt.Sprintf("%s=%s", name, c.kwargs[name]))
	}
	if c.hasDef {
		parts = append(parts, fmt.Sprintf("default=%s", c.def))
	}
	if c.aliased {
		parts = append(parts, fmt.Sprintf("aliasof=%s", StringValue(c.aliasOf)))
	}
	if len(parts) == 0 {
		return c.name
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}
