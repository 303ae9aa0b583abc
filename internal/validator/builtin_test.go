// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package validator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/driftback/driftback/internal/check"
)

func load(t *testing.T, expr string) Validator {
	t.Helper()
	c, err := check.Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", expr, err)
	}
	v, err := Default().Load(c)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", expr, err)
	}
	return v
}

// ===================================================================================================
// Boolean Tests
// ===================================================================================================

func TestBoolean_Convert(t *testing.T) {
	v := load(t, "boolean")
	tests := []struct {
		raw  string
		want bool
	}{
		{"yes", true}, {"on", true}, {"true", true}, {"1", true},
		{"YES", true}, {"True", true},
		{"no", false}, {"off", false}, {"false", false}, {"0", false},
		{"OFF", false},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestBoolean_Invalid(t *testing.T) {
	v := load(t, "boolean")
	for _, raw := range []string{"maybe", "2", "yess", ""} {
		if _, err := Validate(v, raw); err == nil {
			t.Errorf("Validate(%q) should fail", raw)
		}
	}
}

func TestBoolean_Format(t *testing.T) {
	v := load(t, "boolean")
	if s, _ := v.Format(true); s != "yes" {
		t.Errorf("Format(true) = %q, want yes", s)
	}
	if s, _ := v.Format(false); s != "no" {
		t.Errorf("Format(false) = %q, want no", s)
	}
}

// ===================================================================================================
// Integer Tests
// ===================================================================================================

func TestInteger_Bounds(t *testing.T) {
	v := load(t, "integer(min=1, max=10)")
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"10", 10, true},
		{"5", 5, true},
		{"0", 0, false},
		{"11", 0, false},
		{"-3", 0, false},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if tc.ok != (err == nil) {
			t.Errorf("Validate(%q) error = %v, want ok=%v", tc.raw, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("Validate(%q) = %v, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestInteger_BoundsAreInclusive(t *testing.T) {
	v := load(t, "integer(min=0, max=0)")
	if _, err := Validate(v, "0"); err != nil {
		t.Errorf("min=max=0 should accept 0: %v", err)
	}
}

func TestInteger_Radix(t *testing.T) {
	tests := []struct {
		expr string
		raw  string
		want int64
	}{
		{"integer(base=16)", "ff", 255},
		{"integer(base=16)", "0xff", 255},
		{"integer(base=16)", "0XFF", 255},
		{"integer(base=8)", "0o755", 493},
		{"integer(base=8)", "755", 493},
		{"integer(base=2)", "0b101", 5},
		{"integer", "42", 42},
	}
	for _, tc := range tests {
		v := load(t, tc.expr)
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("%s: Validate(%q) error = %v", tc.expr, tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: Validate(%q) = %v, want %d", tc.expr, tc.raw, got, tc.want)
		}
	}
}

func TestInteger_FormatRadix(t *testing.T) {
	tests := []struct {
		expr  string
		value int64
		want  string
	}{
		{"integer", 255, "255"},
		{"integer(base=16)", 255, "0xff"},
		{"integer(base=16)", -255, "-0xff"},
		{"integer(base=8)", 493, "0o755"},
		{"integer(base=2)", 5, "0b101"},
	}
	for _, tc := range tests {
		v := load(t, tc.expr)
		text, err := v.Format(tc.value)
		if err != nil {
			t.Errorf("%s: Format(%d) error = %v", tc.expr, tc.value, err)
			continue
		}
		if text != tc.want {
			t.Errorf("%s: Format(%d) = %q, want %q", tc.expr, tc.value, text, tc.want)
		}
		again, err := Validate(v, text)
		if err != nil {
			t.Errorf("%s: Validate(%q) error = %v", tc.expr, text, err)
			continue
		}
		if again != tc.value {
			t.Errorf("%s: %q re-converted to %v, want %d", tc.expr, text, again, tc.value)
		}
	}
}

func TestInteger_InvalidBase(t *testing.T) {
	c := check.MustParse("integer(base=1)")
	if _, err := Default().Load(c); err == nil {
		t.Error("base=1 should be rejected at load time")
	}
}

func TestInteger_Invalid(t *testing.T) {
	v := load(t, "integer")
	for _, raw := range []string{"abc", "1.5", ""} {
		if _, err := Validate(v, raw); err == nil {
			t.Errorf("Validate(%q) should fail", raw)
		}
	}
}

// ===================================================================================================
// Float Tests
// ===================================================================================================

func TestFloat_Convert(t *testing.T) {
	v := load(t, "float")
	got, err := Validate(v, "3.14")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != 3.14 {
		t.Errorf("Validate(\"3.14\") = %v, want 3.14", got)
	}
	// integers are acceptable float input
	if got, err = Validate(v, "2"); err != nil || got != 2.0 {
		t.Errorf("Validate(\"2\") = %v, %v; want 2.0", got, err)
	}
}

func TestFloat_Format(t *testing.T) {
	v := load(t, "float")
	if s, _ := v.Format(3.14159); s != "3.14" {
		t.Errorf("Format(3.14159) = %q, want 3.14", s)
	}
	if s, _ := v.Format(float64(5)); s != "5.00" {
		t.Errorf("Format(5) = %q, want 5.00", s)
	}
}

// ===================================================================================================
// String and Option Tests
// ===================================================================================================

func TestString_UnquotesRaw(t *testing.T) {
	v := load(t, "string")
	got, err := Validate(v, `"quoted value"`)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "quoted value" {
		t.Errorf("Validate() = %q, want %q", got, "quoted value")
	}
}

func TestOption_Enumerated(t *testing.T) {
	v := load(t, `option("mysql", "postgres", "sqlite")`)
	if got, err := Validate(v, "mysql"); err != nil || got != "mysql" {
		t.Errorf("Validate(mysql) = %v, %v", got, err)
	}
	_, err := Validate(v, "oracle")
	if err == nil {
		t.Fatal("Validate(oracle) should fail")
	}
	// the error names the allowed values
	if !strings.Contains(err.Error(), "mysql") {
		t.Errorf("error should enumerate choices: %v", err)
	}
}

// ===================================================================================================
// List, Tuple, Set Tests
// ===================================================================================================

func TestList_Convert(t *testing.T) {
	v := load(t, "list")
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"spaces", "a, b , c", []string{"a", "b ", "c"}},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"empty fields dropped", "a,,b,", []string{"a", "b"}},
		{"empty string", "", []string{}},
		{"single", "only", []string{"only"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(v, tc.raw)
			if err != nil {
				t.Fatalf("Validate(%q) error = %v", tc.raw, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Validate(%q) = %#v, want %#v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestList_RoundTrip(t *testing.T) {
	v := load(t, "list")
	orig := []string{"plain", "has,comma", `has"quote`}
	text, err := v.Format(orig)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	back, err := Validate(v, text)
	if err != nil {
		t.Fatalf("Validate(%q) error = %v", text, err)
	}
	if !reflect.DeepEqual(back, orig) {
		t.Errorf("round trip: %#v -> %q -> %#v", orig, text, back)
	}
}

func TestTuple_Convert(t *testing.T) {
	v := load(t, "tuple")
	got, err := Validate(v, "first,second")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	tup, ok := got.(Tuple)
	if !ok {
		t.Fatalf("Validate() = %T, want Tuple", got)
	}
	if len(tup) != 2 || tup[0] != "first" || tup[1] != "second" {
		t.Errorf("tuple = %v", tup)
	}
}

func TestSet_Convert(t *testing.T) {
	v := load(t, "set")
	got, err := Validate(v, "b,a,b,c")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	set, ok := got.(Set)
	if !ok {
		t.Fatalf("Validate() = %T, want Set", got)
	}
	if len(set) != 3 || !set.Contains("a") || !set.Contains("b") || !set.Contains("c") {
		t.Errorf("set = %v", set)
	}
	// formatting is sorted for stable output
	text, err := v.Format(set)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if text != "a,b,c" {
		t.Errorf("Format() = %q, want a,b,c", text)
	}
}

// ===================================================================================================
// Cmdline Tests
// ===================================================================================================

func TestCmdline_Convert(t *testing.T) {
	v := load(t, "cmdline")
	tests := []struct {
		raw  string
		want []string
	}{
		{"mysqldump --all-databases", []string{"mysqldump", "--all-databases"}},
		{`tar -C "/var/my backups" -cf -`, []string{"tar", "-C", "/var/my backups", "-cf", "-"}},
		{"single", []string{"single"}},
		{"", []string{}},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Validate(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestCmdline_RoundTrip(t *testing.T) {
	v := load(t, "cmdline")
	argv := []string{"sh", "-c", "echo hello world"}
	text, err := v.Format(argv)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	back, err := Validate(v, text)
	if err != nil {
		t.Fatalf("Validate(%q) error = %v", text, err)
	}
	if !reflect.DeepEqual(back, argv) {
		t.Errorf("round trip: %#v -> %q -> %#v", argv, text, back)
	}
}

// ===================================================================================================
// Log Level Tests
// ===================================================================================================

func TestLogLevel_Convert(t *testing.T) {
	v := load(t, "log_level")
	tests := []struct {
		raw  string
		want int64
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarning},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"INFO", LevelInfo},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %v, want %d", tc.raw, got, tc.want)
		}
	}
	if _, err := Validate(v, "loud"); err == nil {
		t.Error("Validate(loud) should fail")
	}
}

func TestLogLevel_Format(t *testing.T) {
	v := load(t, "log_level")
	if s, _ := v.Format(LevelWarning); s != "warning" {
		t.Errorf("Format(30) = %q, want warning", s)
	}
}

// ===================================================================================================
// Percent Tests
// ===================================================================================================

func TestPercent_Convert(t *testing.T) {
	v := load(t, "percent")
	tests := []struct {
		raw  string
		want float64
	}{
		{"3%", 0.03},
		{"3", 0.03},
		{"100%", 1.0},
		{"0.5%", 0.005},
		{" 25 % ", 0.25},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
	if _, err := Validate(v, "lots"); err == nil {
		t.Error("Validate(lots) should fail")
	}
}

// ===================================================================================================
// Bytes Tests
// ===================================================================================================

func TestBytes_Convert(t *testing.T) {
	v := load(t, "bytes")
	tests := []struct {
		raw  string
		want int64
	}{
		{"1024", 1024},
		{"1K", 1024},
		{"1KB", 1024},
		{"4M", 4 << 20},
		{"2G", 2 << 30},
		{"1.5G", 3 << 29},
		{"0", 0},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %v, want %d", tc.raw, got, tc.want)
		}
	}
	if _, err := Validate(v, "huge"); err == nil {
		t.Error("Validate(huge) should fail")
	}
}

func TestBytes_FormatRoundTrip(t *testing.T) {
	v := load(t, "bytes")
	for _, n := range []int64{0, 512, 1024, 4 << 20, 3 << 29, (1 << 30) + 1} {
		text, err := v.Format(n)
		if err != nil {
			t.Fatalf("Format(%d) error = %v", n, err)
		}
		back, err := Validate(v, text)
		if err != nil {
			t.Fatalf("Validate(%q) error = %v", text, err)
		}
		if back != n {
			t.Errorf("round trip: %d -> %q -> %v", n, text, back)
		}
	}
}

// ===================================================================================================
// NameArg Tests
// ===================================================================================================

func TestNameArg_Convert(t *testing.T) {
	v := load(t, "namearg")
	tests := []struct {
		raw  string
		want NameArg
	}{
		{"lvm:snapshot", NameArg{Name: "lvm", Arg: "snapshot"}},
		{"plain", NameArg{Name: "plain", Arg: ""}},
		{"ssh:user@host:22", NameArg{Name: "ssh", Arg: "user@host:22"}},
		{":arg-only", NameArg{Name: "", Arg: "arg-only"}},
	}
	for _, tc := range tests {
		got, err := Validate(v, tc.raw)
		if err != nil {
			t.Errorf("Validate(%q) error = %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestNameArg_Format(t *testing.T) {
	v := load(t, "namearg")
	text, err := v.Format(NameArg{Name: "lvm", Arg: "snapshot"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if text != "lvm:snapshot" {
		t.Errorf("Format() = %q, want lvm:snapshot", text)
	}
	if _, err := v.Format(42); err == nil {
		t.Error("Format(42) should fail")
	}
}

// ===================================================================================================
// Registry Tests
// ===================================================================================================

func TestRegistry_UnknownCheck(t *testing.T) {
	c := check.MustParse("no_such_check")
	if _, err := Default().Load(c); err == nil {
		t.Error("Load() should fail for an unregistered check name")
	}
}

func TestRegistry_CloneIsolation(t *testing.T) {
	snap := Default().Clone()
	snap.Register("only_in_clone", func(*check.Check) (Validator, error) {
		return stringValidator{}, nil
	})
	if _, err := snap.Load(check.MustParse("only_in_clone")); err != nil {
		t.Errorf("clone should see its own registration: %v", err)
	}
	if _, err := Default().Load(check.MustParse("only_in_clone")); err == nil {
		t.Error("default registry should not see clone registrations")
	}
}

func TestRegistry_Names(t *testing.T) {
	names := Default().Names()
	want := map[string]bool{
		"boolean": false, "integer": false, "float": false, "string": false,
		"option": false, "list": false, "cmdline": false, "bytes": false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("Names() is missing %q", name)
		}
	}
}

// ===================================================================================================
// Round Trip Law
// ===================================================================================================

// For every validator, Validate(Format(Validate(raw))) must equal
// Validate(raw).
func TestValidators_RoundTripLaw(t *testing.T) {
	tests := []struct {
		expr string
		raw  string
	}{
		{"boolean", "yes"},
		{"integer", "42"},
		{"integer(base=16)", "0xff"},
		{"float", "2.50"},
		{"string", "hello"},
		{`option("a", "b")`, "a"},
		{"list", `x,"y,z"`},
		{"set", "c,a,b"},
		{"cmdline", "cp -r src dst"},
		{"log_level", "error"},
		{"percent", "15%"},
		{"bytes", "64M"},
		{"namearg", "lvm:snapshot"},
	}
	for _, tc := range tests {
		t.Run(tc.expr+"/"+tc.raw, func(t *testing.T) {
			v := load(t, tc.expr)
			typed, err := Validate(v, tc.raw)
			if err != nil {
				t.Fatalf("Validate(%q) error = %v", tc.raw, err)
			}
			text, err := v.Format(typed)
			if err != nil {
				t.Fatalf("Format(%v) error = %v", typed, err)
			}
			again, err := Validate(v, text)
			if err != nil {
				t.Fatalf("Validate(%q) error = %v", text, err)
			}
			if !reflect.DeepEqual(again, typed) {
				t.Errorf("round trip drifted: %v != %v (via %q)", again, typed, text)
			}
		})
	}
}
