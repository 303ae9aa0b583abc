// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package check

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// TokenIdent is a bare name: a check name, keyword name, or symbolic value.
	TokenIdent TokenKind = iota

	// TokenString is a single- or double-quoted string literal.
	TokenString

	// TokenNumber is an integer or float literal.
	TokenNumber

	// TokenSymbol is one of ( ) = ,
	TokenSymbol
)

func (k TokenKind) String() string {
	switch k {
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is one lexical unit of a check expression. Start and End are byte
// offsets into the source expression.
type Token struct {
	Text  string
	Kind  TokenKind
	Value Value
	Start int
	End   int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(text=%q, kind=%s, value=%s, position=%d-%d)",
		t.Text, t.Kind, t.Value, t.Start, t.End)
}

// ParseError reports a tokenize or parse failure for one check expression.
// Offset is the byte position of the first offending character, or -1 when
// the failure is not tied to a single position (for example, reaching end of
// input while a token was still expected).
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s in check %q", e.Msg, e.Input)
	}
	// caret-marked excerpt pointing at the offending character
	return fmt.Sprintf("%s at offset %d\n%s\n%s^",
		e.Msg, e.Offset, e.Input, strings.Repeat(" ", e.Offset))
}

// Tokenizer rules, tried in order at each position; the first match wins.
// The name rule deliberately requires a non-digit final character so that a
// run of digits always lexes as a number, never as a name.
var (
	nameRe   = regexp.MustCompile(`^[0-9a-zA-Z_-][a-zA-Z0-9_-]*[a-zA-Z_-]`)
	stringRe = regexp.MustCompile(`^(?:'[^'\\]*(?:\\.[^'\\]*)*'|"[^"\\]*(?:\\.[^"\\]*)*")`)
	floatRe  = regexp.MustCompile(`^\d+\.\d+`)
	intRe    = regexp.MustCompile(`^\d+`)
	spaceRe  = regexp.MustCompile(`^\s+`)
)

// Tokenize splits a check expression into its constituent tokens. It is used
// by Parse and is exported for testing and debugging tokenization behavior.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(input) {
		rest := input[pos:]

		if m := spaceRe.FindString(rest); m != "" {
			pos += len(m)
			continue
		}
		if m := nameRe.FindString(rest); m != "" {
			tokens = append(tokens, Token{
				Text:  m,
				Kind:  TokenIdent,
				Value: IdentValue(m),
				Start: pos,
				End:   pos + len(m),
			})
			pos += len(m)
			continue
		}
		if m := stringRe.FindString(rest); m != "" {
			tokens = append(tokens, Token{
				Text:  m,
				Kind:  TokenString,
				Value: StringValue(Unquote(m)),
				Start: pos,
				End:   pos + len(m),
			})
			pos += len(m)
			continue
		}
		if m := floatRe.FindString(rest); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err != nil {
				return nil, &ParseError{Input: input, Offset: pos, Msg: "malformed float literal"}
			}
			tokens = append(tokens, Token{
				Text:  m,
				Kind:  TokenNumber,
				Value: FloatValue(f),
				Start: pos,
				End:   pos + len(m),
			})
			pos += len(m)
			continue
		}
		if m := intRe.FindString(rest); m != "" {
			n, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				return nil, &ParseError{Input: input, Offset: pos, Msg: "integer literal out of range"}
			}
			tokens = append(tokens, Token{
				Text:  m,
				Kind:  TokenNumber,
				Value: IntValue(n),
				Start: pos,
				End:   pos + len(m),
			})
			pos += len(m)
			continue
		}
		switch rest[0] {
		case '(', ')', '=', ',':
			tokens = append(tokens, Token{
				Text:  rest[:1],
				Kind:  TokenSymbol,
				Value: IdentValue(rest[:1]),
				Start: pos,
				End:   pos + 1,
			})
			pos++
			continue
		}
		return nil, &ParseError{Input: input, Offset: pos, Msg: "unexpected character"}
	}
	return tokens, nil
}

// Unquote strips one level of matching single or double quotes from a string
// and resolves backslash escapes inside it. Input that is not quoted is
// returned unchanged (without escape processing), matching the way raw
// configuration values are normalized.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	quote := s[0]
	if (quote != '\'' && quote != '"') || s[len(s)-1] != quote {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// Quote wraps a string in double quotes with backslash escapes whenever the
// bare form would not survive Unquote or field splitting.
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, `'" ,\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
