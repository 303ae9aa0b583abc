// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package config

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed line in a configuration file.
type SyntaxError struct {
	File string
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s line %d: %s: %q", e.File, e.Line, e.Msg, e.Text)
}

// SchemaError reports a defect in configspec authoring, such as a plugin
// schema fragment declaring an option where the base schema declares a
// section. These indicate bugs in plugin or base schema code, not user
// input, and are reported separately from validation errors.
type SchemaError struct {
	Section string
	Key     string
	Msg     string
}

func (e *SchemaError) Error() string {
	where := e.Key
	if e.Section != "" {
		where = fmt.Sprintf("[%s] %s", e.Section, e.Key)
	}
	return fmt.Sprintf("configspec error at %s: %s", where, e.Msg)
}

// OptionError reports that one section/option failed validation. Raw carries
// the offending value as read from the configuration.
type OptionError struct {
	Section string
	Option  string
	Raw     any
	Err     error
}

func (e *OptionError) Error() string {
	section := e.Section
	if section == "" {
		section = rootName
	}
	return fmt.Sprintf("%s.%s: %v", section, e.Option, e.Err)
}

func (e *OptionError) Unwrap() error { return e.Err }

// UnknownSectionError reports a configuration section not declared by any
// merged configspec fragment.
type UnknownSectionError struct {
	Section string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section [%s]", e.Section)
}

// ValidateError aggregates every failure encountered during one validation
// pass. Validation does not stop at the first bad option: all errors are
// collected so a user can fix a configuration in one round.
type ValidateError struct {
	Errors []error
}

func (e *ValidateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors encountered", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ValidateError) Unwrap() []error { return e.Errors }
