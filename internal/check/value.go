// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package check

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the literal forms a check argument can take.
type ValueKind int

const (
	// Null is the explicit null literal (the bare identifier None).
	Null ValueKind = iota

	// String is a quoted string literal.
	String

	// Int is an integer literal.
	Int

	// Float is a floating-point literal.
	Float

	// Ident is a bare identifier used as a symbolic value.
	Ident

	// List is a list(...) expression of positional values.
	List
)

func (k ValueKind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Ident:
		return "ident"
	case List:
		return "list"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged union over the literal forms recognized by the check
// grammar: null, string, integer, float, bare identifier, and list-of-value.
// Values are immutable; the zero Value is the null literal.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	fl   float64
	list []Value
}

// NullValue returns the null literal.
func NullValue() Value { return Value{kind: Null} }

// StringValue returns a string literal value.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// IntValue returns an integer literal value.
func IntValue(n int64) Value { return Value{kind: Int, num: n} }

// FloatValue returns a float literal value.
func FloatValue(f float64) Value { return Value{kind: Float, fl: f} }

// IdentValue returns a bare-identifier value carrying its literal text.
func IdentValue(name string) Value { return Value{kind: Ident, str: name} }

// ListValue returns a list value over the given elements. The element slice
// is copied so the new value does not alias the caller's storage.
func ListValue(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: List, list: cp}
}

// Kind reports which literal form this value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether this value is the null literal.
func (v Value) IsNull() bool { return v.kind == Null }

// Text returns the textual content of a string or identifier value. It
// returns the empty string for any other kind.
func (v Value) Text() string {
	if v.kind == String || v.kind == Ident {
		return v.str
	}
	return ""
}

// Int returns the integer content of an Int value and whether the value is
// actually an integer.
func (v Value) Int() (int64, bool) {
	if v.kind == Int {
		return v.num, true
	}
	return 0, false
}

// Float returns the numeric content of a Float or Int value and whether the
// value was numeric.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Float:
		return v.fl, true
	case Int:
		return float64(v.num), true
	default:
		return 0, false
	}
}

// List returns the elements of a List value. The returned slice must not be
// modified.
func (v Value) List() []Value {
	if v.kind == List {
		return v.list
	}
	return nil
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case String, Ident:
		return v.str == other.str
	case Int:
		return v.num == other.num
	case Float:
		return v.fl == other.fl
	case List:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Interface converts the value to its native Go representation: nil, string
// (for both strings and identifiers), int64, float64, or []any for lists.
// Validators receive these native forms when a declaration's default is used
// in place of raw configuration text.
func (v Value) Interface() any {
	switch v.kind {
	case Null:
		return nil
	case String, Ident:
		return v.str
	case Int:
		return v.num
	case Float:
		return v.fl
	case List:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders the value in check-expression syntax.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "None"
	case String:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v.str) + "'"
	case Ident:
		return v.str
	case Int:
		return strconv.FormatInt(v.num, 10)
	case Float:
		return strconv.FormatFloat(v.fl, 'g', -1, 64)
	case List:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "list(" + strings.Join(parts, ", ") + ")"
	default:
		return "<invalid>"
	}
}
