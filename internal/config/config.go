// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// rootName is the name every root Config carries.
const rootName = "root"

// Source records where an option or section was read from.
type Source struct {
	File string
	Line int
}

// Config is an ordered section/option/string mapping read from an ini-style
// configuration file. Sections nest: a Config holds both plain options and
// subsection Configs under distinct keys, preserving insertion order.
type Config struct {
	name     string
	path     string
	order    []string
	options  map[string]string
	sections map[string]*Config
	source   map[string]Source
}

// New returns an empty root configuration.
func New() *Config {
	return &Config{
		name:     rootName,
		options:  map[string]string{},
		sections: map[string]*Config{},
		source:   map[string]Source{},
	}
}

// Name returns the section name; root configurations are named "root".
func (c *Config) Name() string { return c.name }

// Path returns the file this configuration was loaded from, if any.
func (c *Config) Path() string { return c.path }

// Keys returns option and section keys in insertion order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// OptionKey normalizes an option name: underscores become dashes.
func OptionKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "_", "-")
}

// Option returns the raw string value of an option.
func (c *Config) Option(key string) (string, bool) {
	v, ok := c.options[OptionKey(key)]
	return v, ok
}

// SetOption sets an option's raw value, normalizing the key.
func (c *Config) SetOption(key, value string) {
	key = OptionKey(key)
	if _, exists := c.options[key]; !exists {
		if _, isSection := c.sections[key]; !isSection {
			c.order = append(c.order, key)
		}
	}
	c.options[key] = value
}

// Section returns the named subsection.
func (c *Config) Section(key string) (*Config, bool) {
	s, ok := c.sections[key]
	return s, ok
}

// EnsureSection returns the named subsection, creating it if absent. It
// panics when the key already names a plain option; callers detect that case
// beforehand via Option.
func (c *Config) EnsureSection(key string) *Config {
	if s, ok := c.sections[key]; ok {
		return s
	}
	if _, isOption := c.options[key]; isOption {
		panic(fmt.Sprintf("config: option %q cannot become a section", key))
	}
	s := New()
	s.name = key
	c.sections[key] = s
	c.order = append(c.order, key)
	return s
}

// IsSection reports whether the key names a subsection.
func (c *Config) IsSection(key string) bool {
	_, ok := c.sections[key]
	return ok
}

// SourceOf returns where the given key was defined.
func (c *Config) SourceOf(key string) (Source, bool) {
	s, ok := c.source[key]
	return s, ok
}

func (c *Config) setSource(key string, src Source) {
	c.source[key] = src
}

// Merge copies all options and subsections from src into this config.
// Options from src overwrite existing options. A plain option colliding with
// a section is a structural conflict and fails.
func (c *Config) Merge(src *Config) error {
	for _, key := range src.order {
		if sub, ok := src.sections[key]; ok {
			if _, isOption := c.options[key]; isOption {
				return fmt.Errorf("config merge: value-namespace conflict at %q", key)
			}
			if err := c.EnsureSection(key).Merge(sub); err != nil {
				return err
			}
		} else {
			if c.IsSection(key) {
				return fmt.Errorf("config merge: value-namespace conflict at %q", key)
			}
			c.SetOption(key, src.options[key])
		}
		if src, ok := src.source[key]; ok {
			c.source[key] = src
		}
	}
	return nil
}

// Meld copies options and subsections from src, but unlike Merge existing
// options are always preserved: Meld only adds what is missing.
func (c *Config) Meld(src *Config) error {
	for _, key := range src.order {
		if sub, ok := src.sections[key]; ok {
			if _, isOption := c.options[key]; isOption {
				return fmt.Errorf("config meld: value-namespace conflict at %q", key)
			}
			if err := c.EnsureSection(key).Meld(sub); err != nil {
				return err
			}
		} else {
			if c.IsSection(key) {
				return fmt.Errorf("config meld: value-namespace conflict at %q", key)
			}
			if _, exists := c.options[key]; !exists {
				c.SetOption(key, src.options[key])
				if src, ok := src.source[key]; ok {
					c.source[key] = src
				}
			}
		}
	}
	return nil
}

// line-level grammar
var (
	emptyRe   = regexp.MustCompile(`^\s*($|#|;)`)
	sectionRe = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*(?:#.*)?$`)
	keyRe     = regexp.MustCompile(`^([^:=\s\[][^:=]*)=\s*(.*)$`)
	contRe    = regexp.MustCompile(`^\s+(\S.*?)\s*$`)
	includeRe = regexp.MustCompile(`^%include\s+(.+?)\s*$`)
)

// FromString parses configuration text. The source name in errors is
// "<string>".
func FromString(text string) (*Config, error) {
	return parse(strings.NewReader(text), "<string>", "")
}

// ReadFile reads and parses one configuration file.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()
	cfg, err := parse(f, path, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// ReadFiles reads several configuration files and merges them in order, with
// later files overriding earlier ones.
func ReadFiles(paths ...string) (*Config, error) {
	main := New()
	for _, path := range paths {
		cfg, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := main.Merge(cfg); err != nil {
			return nil, err
		}
		main.path = path
	}
	return main, nil
}

func parse(r io.Reader, name, includeDir string) (*Config, error) {
	cfg := New()
	section := cfg
	lastKey := ""
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		if emptyRe.MatchString(line) {
			continue
		}
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			sectName := m[1]
			if _, isOption := cfg.options[sectName]; isOption {
				return nil, &SyntaxError{File: name, Line: lineno, Text: line,
					Msg: "section name collides with an option"}
			}
			section = cfg.EnsureSection(sectName)
			cfg.setSource(sectName, Source{File: name, Line: lineno})
			lastKey = ""
			continue
		}
		if m := keyRe.FindStringSubmatch(line); m != nil {
			key := OptionKey(m[1])
			value, err := stripInlineComment(m[2])
			if err != nil {
				return nil, &SyntaxError{File: name, Line: lineno, Text: line,
					Msg: err.Error()}
			}
			section.SetOption(key, value)
			section.setSource(key, Source{File: name, Line: lineno})
			lastKey = key
			continue
		}
		if m := contRe.FindStringSubmatch(line); m != nil {
			if lastKey == "" {
				return nil, &SyntaxError{File: name, Line: lineno, Text: line,
					Msg: "unexpected continuation line"}
			}
			prev, _ := section.Option(lastKey)
			section.SetOption(lastKey, prev+m[1])
			continue
		}
		if m := includeRe.FindStringSubmatch(line); m != nil {
			path := m[1]
			if !filepath.IsAbs(path) {
				path = filepath.Join(includeDir, path)
			}
			included, err := ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %%include: %w", name, lineno, err)
			}
			if err := cfg.Merge(included); err != nil {
				return nil, fmt.Errorf("%s line %d: %%include: %w", name, lineno, err)
			}
			lastKey = ""
			continue
		}
		return nil, &SyntaxError{File: name, Line: lineno, Text: line, Msg: "invalid line"}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", name, err)
	}
	return cfg, nil
}

// stripInlineComment cuts an unquoted trailing comment off a value, honoring
// double-quoted spans and backslash escapes.
func stripInlineComment(value string) (string, error) {
	inQuote := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			i++
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return strings.TrimSpace(value[:i]), nil
			}
		}
	}
	if inQuote {
		return "", fmt.Errorf("unterminated quote in value")
	}
	return strings.TrimSpace(value), nil
}

// WriteTo serializes the configuration as text.
func (c *Config) WriteTo(w io.Writer) error {
	_, err := io.WriteString(w, c.String())
	return err
}

// WriteFile writes the configuration to the named file.
func (c *Config) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// String renders the configuration in its file format.
func (c *Config) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *Config) write(b *strings.Builder) {
	for _, key := range c.order {
		if sub, ok := c.sections[key]; ok {
			fmt.Fprintf(b, "[%s]\n", key)
			sub.write(b)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(b, "%s = %s\n", key, c.options[key])
		}
	}
}
