// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package check

import (
	"errors"
	"testing"
)

// ===================================================================================================
// Tokenize Tests
// ===================================================================================================

func TestTokenize_FullCheck(t *testing.T) {
	tokens, err := Tokenize("integer(min=1, max=10, default=5)")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	want := []struct {
		text string
		kind TokenKind
	}{
		{"integer", TokenIdent},
		{"(", TokenSymbol},
		{"min", TokenIdent},
		{"=", TokenSymbol},
		{"1", TokenNumber},
		{",", TokenSymbol},
		{"max", TokenIdent},
		{"=", TokenSymbol},
		{"10", TokenNumber},
		{",", TokenSymbol},
		{"default", TokenIdent},
		{"=", TokenSymbol},
		{"5", TokenNumber},
		{")", TokenSymbol},
	}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize() returned %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Text != w.text || tokens[i].Kind != w.kind {
			t.Errorf("token[%d] = (%q, %s), want (%q, %s)",
				i, tokens[i].Text, tokens[i].Kind, w.text, w.kind)
		}
	}
}

func TestTokenize_Classification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  TokenKind
	}{
		{"bare name", "string", TokenIdent},
		{"name with interior digit", "log2level", TokenIdent},
		{"name with dash", "log-level", TokenIdent},
		{"name with leading digit", "0abc", TokenIdent},
		{"integer literal", "42", TokenNumber},
		{"float literal", "3.14", TokenNumber},
		{"double quoted string", `"hello world"`, TokenString},
		{"single quoted string", "'hello'", TokenString},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := Tokenize(tc.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tc.input, err)
			}
			if len(tokens) != 1 {
				t.Fatalf("Tokenize(%q) returned %d tokens, want 1", tc.input, len(tokens))
			}
			if tokens[0].Kind != tc.kind {
				t.Errorf("Tokenize(%q) kind = %s, want %s", tc.input, tokens[0].Kind, tc.kind)
			}
		})
	}
}

// A run of digits always lexes as a number because the name rule requires a
// non-digit final character.
func TestTokenize_DigitRunIsNumber(t *testing.T) {
	tokens, err := Tokenize("1024")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if tokens[0].Kind != TokenNumber {
		t.Errorf("kind = %s, want %s", tokens[0].Kind, TokenNumber)
	}
	if n, ok := tokens[0].Value.Int(); !ok || n != 1024 {
		t.Errorf("value = %v, want 1024", tokens[0].Value)
	}
}

// The name rule forbids a digit final character, so a trailing digit splits
// off as its own number token.
func TestTokenize_TrailingDigitSplits(t *testing.T) {
	tokens, err := Tokenize("utf8")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("Tokenize(\"utf8\") returned %d tokens, want 2", len(tokens))
	}
	if tokens[0].Kind != TokenIdent || tokens[0].Text != "utf" {
		t.Errorf("first token = %s %q, want ident \"utf\"", tokens[0].Kind, tokens[0].Text)
	}
	if tokens[1].Kind != TokenNumber {
		t.Errorf("second token = %s, want %s", tokens[1].Kind, TokenNumber)
	}
	if n, ok := tokens[1].Value.Int(); !ok || n != 8 {
		t.Errorf("second token value = %v, want 8", tokens[1].Value)
	}
}

// The name rule requires at least two characters, so a lone letter has no
// matching rule.
func TestTokenize_SingleLetterRejected(t *testing.T) {
	_, err := Tokenize("x")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Tokenize(\"x\") error = %v, want *ParseError", err)
	}
	if perr.Offset != 0 {
		t.Errorf("Offset = %d, want 0", perr.Offset)
	}
}

func TestTokenize_FloatRequiresDecimalPoint(t *testing.T) {
	tokens, err := Tokenize("10")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if _, ok := tokens[0].Value.Int(); !ok {
		t.Errorf("10 should lex as an integer, got %s", tokens[0].Value.Kind())
	}

	tokens, err = Tokenize("10.5")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if f, ok := tokens[0].Value.Float(); !ok || f != 10.5 {
		t.Errorf("10.5 should lex as a float, got %v", tokens[0].Value)
	}
}

func TestTokenize_StringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"escaped quote", `"a\"b"`, `a"b`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"single quotes", `'it\'s'`, "it's"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := Tokenize(tc.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tc.input, err)
			}
			if got := tokens[0].Value.Text(); got != tc.want {
				t.Errorf("Tokenize(%q) value = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := Tokenize(`"abc`)
	if err == nil {
		t.Fatal("Tokenize() should fail on an unterminated string")
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	const input = `option("a", "b", default="a")`
	first, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Tokenize(input)
		if err != nil {
			t.Fatalf("Tokenize() error = %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d tokens, want %d", i, len(again), len(first))
		}
		for j := range again {
			a, b := again[j], first[j]
			if a.Text != b.Text || a.Kind != b.Kind || a.Start != b.Start ||
				a.End != b.End || !a.Value.Equal(b.Value) {
				t.Errorf("run %d: token[%d] = %v, want %v", i, j, a, b)
			}
		}
	}
}

func TestTokenize_Offsets(t *testing.T) {
	tokens, err := Tokenize("integer( min=1 )")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if tokens[2].Text != "min" || tokens[2].Start != 9 || tokens[2].End != 12 {
		t.Errorf("min token = %v, want Start=9 End=12", tokens[2])
	}
}

// ===================================================================================================
// Quote / Unquote Tests
// ===================================================================================================

func TestQuoteUnquote(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"plain", "simple"},
		{"with space", "two words"},
		{"with comma", "a,b"},
		{"with quote", `say "hi"`},
		{"with backslash", `c:\tmp`},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Unquote(Quote(tc.in)); got != tc.in {
				t.Errorf("Unquote(Quote(%q)) = %q", tc.in, got)
			}
		})
	}
}
