// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package config

import (
	"fmt"
	"strings"

	"github.com/driftback/driftback/internal/check"
	"github.com/driftback/driftback/internal/logging"
	"github.com/driftback/driftback/internal/validator"
)

// Configspec is a tree of check expressions describing the shape of a valid
// configuration. Section keys map to nested Configspecs and option keys map
// to parsed checks. Each spec carries a snapshot of the validator registry
// taken when it was created, so later registrations cannot change the
// meaning of an existing spec.
type Configspec struct {
	name     string
	order    []string
	checks   map[string]*check.Check
	sections map[string]*Configspec
	registry *validator.Registry
}

// NewConfigspec returns an empty spec bound to the default validator
// registry.
func NewConfigspec() *Configspec {
	return NewConfigspecWith(validator.Default())
}

// NewConfigspecWith returns an empty spec bound to a snapshot of the given
// registry.
func NewConfigspecWith(reg *validator.Registry) *Configspec {
	return &Configspec{
		name:     rootName,
		checks:   map[string]*check.Check{},
		sections: map[string]*Configspec{},
		registry: reg.Clone(),
	}
}

// ConfigspecFromString parses configuration-style text whose values are
// check expressions. Every check is parsed eagerly, so a malformed
// expression fails here rather than at validation time.
func ConfigspecFromString(text string) (*Configspec, error) {
	raw, err := FromString(text)
	if err != nil {
		return nil, err
	}
	return configspecFrom(raw, validator.Default())
}

// MustConfigspec parses a spec and panics on error. Intended for built-in
// specs declared as package constants.
func MustConfigspec(text string) *Configspec {
	cs, err := ConfigspecFromString(text)
	if err != nil {
		panic(fmt.Sprintf("configspec: %v", err))
	}
	return cs
}

func configspecFrom(raw *Config, reg *validator.Registry) (*Configspec, error) {
	cs := NewConfigspecWith(reg)
	cs.name = raw.name
	if err := cs.load(raw); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *Configspec) load(raw *Config) error {
	for _, key := range raw.order {
		if sub, ok := raw.sections[key]; ok {
			child := cs.EnsureSection(key)
			if err := child.load(sub); err != nil {
				return err
			}
			continue
		}
		expr, _ := raw.Option(key)
		c, err := check.Parse(expr)
		if err != nil {
			return &SchemaError{Section: raw.name, Key: key,
				Msg: fmt.Sprintf("invalid check %q: %v", expr, err)}
		}
		if err := cs.SetCheck(key, c); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the section name.
func (cs *Configspec) Name() string { return cs.name }

// Keys returns check and section keys in insertion order.
func (cs *Configspec) Keys() []string {
	keys := make([]string, len(cs.order))
	copy(keys, cs.order)
	return keys
}

// Check returns the parsed check for an option.
func (cs *Configspec) Check(key string) (*check.Check, bool) {
	c, ok := cs.checks[OptionKey(key)]
	return c, ok
}

// SetCheck stores a check under the normalized key.
func (cs *Configspec) SetCheck(key string, c *check.Check) error {
	key = OptionKey(key)
	if _, isSection := cs.sections[key]; isSection {
		return &SchemaError{Section: cs.name, Key: key,
			Msg: "check collides with a section of the same name"}
	}
	if _, exists := cs.checks[key]; !exists {
		cs.order = append(cs.order, key)
	}
	cs.checks[key] = c
	return nil
}

// Section returns the named subsection spec.
func (cs *Configspec) Section(key string) (*Configspec, bool) {
	s, ok := cs.sections[key]
	return s, ok
}

// EnsureSection returns the named subsection spec, creating it if absent.
func (cs *Configspec) EnsureSection(key string) *Configspec {
	if s, ok := cs.sections[key]; ok {
		return s
	}
	s := NewConfigspecWith(cs.registry)
	s.name = key
	cs.sections[key] = s
	cs.order = append(cs.order, key)
	return s
}

// Merge copies checks and subsections from src into this spec. Incoming
// checks replace existing ones; each is cloned so the merged spec never
// shares declarations with src. A check colliding with a section in either
// direction is a schema error.
func (cs *Configspec) Merge(src *Configspec) error {
	for _, key := range src.order {
		if sub, ok := src.sections[key]; ok {
			if _, isCheck := cs.checks[key]; isCheck {
				return &SchemaError{Section: cs.name, Key: key,
					Msg: "cannot merge a section over an option check"}
			}
			if err := cs.EnsureSection(key).Merge(sub); err != nil {
				return err
			}
			continue
		}
		if err := cs.SetCheck(key, src.checks[key].Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Meld copies checks and subsections from src, preserving existing checks.
// Like Merge, incoming checks are cloned rather than shared.
func (cs *Configspec) Meld(src *Configspec) error {
	for _, key := range src.order {
		if sub, ok := src.sections[key]; ok {
			if _, isCheck := cs.checks[key]; isCheck {
				return &SchemaError{Section: cs.name, Key: key,
					Msg: "cannot meld a section over an option check"}
			}
			if err := cs.EnsureSection(key).Meld(sub); err != nil {
				return err
			}
			continue
		}
		if _, exists := cs.checks[key]; exists {
			continue
		}
		if err := cs.SetCheck(key, src.checks[key].Clone()); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOptions control how a Configspec checks a configuration.
type ValidateOptions struct {
	// IgnoreUnknownSections suppresses errors for configuration sections
	// the configspec does not describe. Used during the first validation
	// pass, before plugin configspec fragments have been merged in.
	IgnoreUnknownSections bool
}

// Validate checks cfg against the configspec and returns a new typed tree. The raw
// configuration is never modified. All validation failures are collected; a
// non-nil error is always a *ValidateError wrapping every individual
// failure.
func (cs *Configspec) Validate(cfg *Config, opts ValidateOptions) (*Validated, error) {
	out := NewValidated()
	out.name = cfg.name
	var errs []error
	cs.validateInto(cfg, out, opts, &errs)
	if len(errs) > 0 {
		return nil, &ValidateError{Errors: errs}
	}
	return out, nil
}

func (cs *Configspec) validateInto(cfg *Config, out *Validated, opts ValidateOptions, errs *[]error) {
	aliases := cs.aliasTargets()

	for _, key := range cs.order {
		if sub, ok := cs.sections[key]; ok {
			// Sections described by the configspec always appear in the
			// output so defaults materialize even when the raw
			// config omits the whole section.
			rawSub, ok := cfg.Section(key)
			if !ok {
				if _, isOpt := cfg.Option(key); isOpt {
					*errs = append(*errs, &SchemaError{Section: cs.name, Key: key,
						Msg: "expected a section but found an option"})
					continue
				}
				rawSub = New()
				rawSub.name = key
			}
			sub.validateInto(rawSub, out.EnsureSection(key), opts, errs)
			continue
		}

		c := cs.checks[key]
		if c.IsAlias() {
			// Aliases never produce output themselves; their raw
			// value is folded into the target option instead.
			continue
		}
		raw, found := cs.resolveRaw(cfg, key, aliases)
		if !found {
			def, hasDef := c.Default()
			if !hasDef {
				*errs = append(*errs, &OptionError{Section: cfg.name, Option: key,
					Err: fmt.Errorf("required option is missing")})
				continue
			}
			typed, err := cs.convertDefault(c, def)
			if err != nil {
				*errs = append(*errs, &OptionError{Section: cfg.name, Option: key, Err: err})
				continue
			}
			out.Set(key, typed)
			continue
		}
		v, err := cs.registry.Load(c)
		if err != nil {
			*errs = append(*errs, &SchemaError{Section: cfg.name, Key: key, Msg: err.Error()})
			continue
		}
		typed, err := validator.Validate(v, raw)
		if err != nil {
			*errs = append(*errs, &OptionError{Section: cfg.name, Option: key, Raw: raw, Err: err})
			continue
		}
		out.Set(key, typed)
	}

	cs.sweepUnknown(cfg, opts, errs)
}

// aliasTargets maps each target option to the list of alias names that
// redirect to it, in spec order.
func (cs *Configspec) aliasTargets() map[string][]string {
	var targets map[string][]string
	for _, key := range cs.order {
		c, ok := cs.checks[key]
		if !ok {
			continue
		}
		if target, isAlias := c.AliasOf(); isAlias {
			if targets == nil {
				targets = map[string][]string{}
			}
			target = OptionKey(target)
			targets[target] = append(targets[target], key)
		}
	}
	return targets
}

// resolveRaw finds the raw string for an option: the option's own value
// wins, otherwise the first alias that has a value supplies it.
func (cs *Configspec) resolveRaw(cfg *Config, key string, aliases map[string][]string) (string, bool) {
	if raw, ok := cfg.Option(key); ok {
		return raw, true
	}
	for _, alias := range aliases[key] {
		if raw, ok := cfg.Option(alias); ok {
			logging.Debug().
				Str("section", cfg.name).
				Str("alias", alias).
				Str("option", key).
				Msg("resolving option through deprecated alias")
			return raw, true
		}
	}
	return "", false
}

// convertDefault runs a check's default through Convert only. Defaults are
// authored as typed literals, so they skip the string normalization step.
func (cs *Configspec) convertDefault(c *check.Check, def check.Value) (any, error) {
	v, err := cs.registry.Load(c)
	if err != nil {
		return nil, err
	}
	if def.IsNull() {
		return nil, nil
	}
	return v.Convert(def.Interface())
}

// sweepUnknown reports configuration keys the configspec does not describe.
// Unknown sections are hard errors unless suppressed; unknown options are
// logged and dropped.
func (cs *Configspec) sweepUnknown(cfg *Config, opts ValidateOptions, errs *[]error) {
	known := func(key string) bool {
		if _, ok := cs.checks[key]; ok {
			return true
		}
		_, ok := cs.sections[key]
		return ok
	}
	for _, key := range cfg.order {
		if known(key) {
			continue
		}
		if cfg.IsSection(key) {
			if opts.IgnoreUnknownSections {
				continue
			}
			*errs = append(*errs, &UnknownSectionError{Section: key})
			continue
		}
		logging.Warn().
			Str("section", cfg.name).
			Str("option", key).
			Msg("ignoring unrecognized option")
	}
}

// Defaults validates an empty configuration, yielding a tree holding every
// configspec default. Fails if the configspec has required options.
func (cs *Configspec) Defaults() (*Validated, error) {
	return cs.Validate(New(), ValidateOptions{})
}

// Render converts a validated tree back into a raw configuration using each
// check's Format. Rendering a tree and validating the result yields an
// equal tree.
func (cs *Configspec) Render(v *Validated) (*Config, error) {
	out := New()
	out.name = v.name
	if err := cs.renderInto(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *Configspec) renderInto(v *Validated, out *Config) error {
	for _, key := range v.order {
		if sub, ok := v.sections[key]; ok {
			spec, ok := cs.sections[key]
			if !ok {
				return &SchemaError{Section: cs.name, Key: key,
					Msg: "no spec for section"}
			}
			if err := spec.renderInto(sub, out.EnsureSection(key)); err != nil {
				return err
			}
			continue
		}
		c, ok := cs.checks[key]
		if !ok {
			return &SchemaError{Section: cs.name, Key: key,
				Msg: "no spec for option"}
		}
		val, _ := v.Get(key)
		if val == nil {
			// A nil value only arises from a null default. Omitting the
			// option re-materializes that default on validation; writing
			// an empty string instead would fail typed conversion.
			continue
		}
		vd, err := cs.registry.Load(c)
		if err != nil {
			return &SchemaError{Section: cs.name, Key: key, Msg: err.Error()}
		}
		text, err := vd.Format(val)
		if err != nil {
			return &OptionError{Section: cs.name, Option: key, Err: err}
		}
		out.SetOption(key, text)
	}
	return nil
}

// Skeleton renders a starter configuration for this spec. Options with a
// default show the formatted default value, null defaults become a
// commented placeholder, and required options are left blank for the user
// to fill in. Unlike Render, Skeleton works on specs that still have
// unsatisfied required options.
func (cs *Configspec) Skeleton() (string, error) {
	var b strings.Builder
	if err := cs.writeSkeleton(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (cs *Configspec) writeSkeleton(b *strings.Builder) error {
	for _, key := range cs.order {
		if sub, ok := cs.sections[key]; ok {
			fmt.Fprintf(b, "[%s]\n", key)
			if err := sub.writeSkeleton(b); err != nil {
				return err
			}
			b.WriteString("\n")
			continue
		}
		c := cs.checks[key]
		if c.IsAlias() {
			continue
		}
		def, hasDef := c.Default()
		if !hasDef {
			fmt.Fprintf(b, "%s =\n", key)
			continue
		}
		if def.IsNull() {
			fmt.Fprintf(b, "# %s =\n", key)
			continue
		}
		v, err := cs.registry.Load(c)
		if err != nil {
			return &SchemaError{Section: cs.name, Key: key, Msg: err.Error()}
		}
		typed, err := v.Convert(def.Interface())
		if err != nil {
			return &OptionError{Section: cs.name, Option: key, Err: err}
		}
		text, err := v.Format(typed)
		if err != nil {
			return &OptionError{Section: cs.name, Option: key, Err: err}
		}
		fmt.Fprintf(b, "%s = %s\n", key, text)
	}
	return nil
}

// String renders the configspec back in its source form.
func (cs *Configspec) String() string {
	var b strings.Builder
	cs.write(&b)
	return b.String()
}

func (cs *Configspec) write(b *strings.Builder) {
	for _, key := range cs.order {
		if sub, ok := cs.sections[key]; ok {
			fmt.Fprintf(b, "[%s]\n", key)
			sub.write(b)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(b, "%s = %s\n", key, cs.checks[key].String())
		}
	}
}
