// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package check

import "fmt"

// lexer is a one-token-lookahead cursor over the token stream.
type lexer struct {
	input  string
	tokens []Token
	pos    int
}

// next returns the next token or fails when the stream is exhausted while a
// token was still expected.
func (l *lexer) next() (Token, error) {
	if l.pos >= len(l.tokens) {
		return Token{}, &ParseError{
			Input:  l.input,
			Offset: -1,
			Msg:    "reached end of input while reading token",
		}
	}
	tok := l.tokens[l.pos]
	l.pos++
	return tok, nil
}

// expect fetches the next token and fails unless its kind matches.
func (l *lexer) expect(kind TokenKind) (Token, error) {
	tok, err := l.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, &ParseError{
			Input:  l.input,
			Offset: tok.Start,
			Msg:    fmt.Sprintf("expected %s but got %s", kind, tok),
		}
	}
	return tok, nil
}

func (l *lexer) done() bool { return l.pos >= len(l.tokens) }

// parseExpr parses the raw (name, positional args, keyword args) triple of a
// check expression. Reserved keywords are not interpreted at this level.
func parseExpr(input string) (string, []Value, map[string]Value, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return "", nil, nil, err
	}
	lex := &lexer{input: input, tokens: tokens}

	name, err := lex.next()
	if err != nil {
		return "", nil, nil, err
	}
	if name.Kind != TokenIdent {
		return "", nil, nil, &ParseError{
			Input:  input,
			Offset: name.Start,
			Msg:    "expected identifier as first token in check",
		}
	}

	// bare-name check, e.g. "string"
	if lex.done() {
		return name.Text, nil, map[string]Value{}, nil
	}

	open, err := lex.next()
	if err != nil {
		return "", nil, nil, err
	}
	if open.Text != "(" {
		return "", nil, nil, &ParseError{
			Input:  input,
			Offset: open.Start,
			Msg:    "expected '(' after check name",
		}
	}

	args, kwargs, err := parseArgumentList(lex)
	if err != nil {
		return "", nil, nil, err
	}
	if !lex.done() {
		tok := lex.tokens[lex.pos]
		return "", nil, nil, &ParseError{
			Input:  input,
			Offset: tok.Start,
			Msg:    fmt.Sprintf("unexpected trailing token %s", tok),
		}
	}
	return name.Text, args, kwargs, nil
}

// parseArgumentList parses the arguments following an open '(' up to and
// including the closing ')'. Each argument is classified independently: an
// expression immediately followed by '=' is a keyword argument, anything else
// is positional. Duplicate keyword names overwrite earlier ones (last write
// wins); the schema layer is responsible for flagging duplicates if desired.
func parseArgumentList(lex *lexer) ([]Value, map[string]Value, error) {
	args := []Value{}
	kwargs := map[string]Value{}
	for {
		tok, err := lex.next()
		if err != nil {
			return nil, nil, err
		}
		if tok.Text == ")" {
			return args, kwargs, nil
		}
		if tok.Kind == TokenSymbol {
			return nil, nil, &ParseError{
				Input:  lex.input,
				Offset: tok.Start,
				Msg:    fmt.Sprintf("unexpected token %s", tok),
			}
		}

		arg, err := parseExpression(lex, tok)
		if err != nil {
			return nil, nil, err
		}

		sep, err := lex.expect(TokenSymbol)
		if err != nil {
			return nil, nil, err
		}
		if sep.Text == "=" {
			key, err := keywordName(lex, tok)
			if err != nil {
				return nil, nil, err
			}
			rhs, err := lex.next()
			if err != nil {
				return nil, nil, err
			}
			value, err := parseExpression(lex, rhs)
			if err != nil {
				return nil, nil, err
			}
			kwargs[key] = value
			sep, err = lex.next()
			if err != nil {
				return nil, nil, err
			}
		} else {
			args = append(args, arg)
		}

		if sep.Text == ")" {
			return args, kwargs, nil
		}
		if sep.Text != "," {
			return nil, nil, &ParseError{
				Input:  lex.input,
				Offset: sep.Start,
				Msg:    fmt.Sprintf("expected ',' or ')' but got %s", sep),
			}
		}
	}
}

// keywordName extracts the keyword name from the token on the left side of
// '='. Identifiers and string literals are accepted as keys.
func keywordName(lex *lexer, tok Token) (string, error) {
	switch {
	case tok.Kind == TokenIdent && tok.Text == "list":
		// the left side was a list expression, which cannot name a keyword
		return "", &ParseError{
			Input:  lex.input,
			Offset: tok.Start,
			Msg:    "list expression cannot be used as a keyword name",
		}
	case tok.Kind == TokenIdent || tok.Kind == TokenString:
		return tok.Value.Text(), nil
	default:
		return "", &ParseError{
			Input:  lex.input,
			Offset: tok.Start,
			Msg:    fmt.Sprintf("invalid keyword name %s", tok),
		}
	}
}

// parseExpression parses a single expression given its first token: a string
// or numeric literal, the null literal None, a bare identifier acting as a
// symbolic value, or a nested list(...) expression.
func parseExpression(lex *lexer, tok Token) (Value, error) {
	switch {
	case tok.Kind == TokenString || tok.Kind == TokenNumber:
		return tok.Value, nil
	case tok.Kind == TokenIdent && tok.Text == "None":
		return NullValue(), nil
	case tok.Kind == TokenIdent && tok.Text != "list":
		return IdentValue(tok.Text), nil
	case tok.Kind == TokenIdent: // the identifier 'list'
		return parseListExpression(lex)
	default:
		return Value{}, &ParseError{
			Input:  lex.input,
			Offset: tok.Start,
			Msg:    fmt.Sprintf("unexpected token %s in expression", tok),
		}
	}
}

// parseListExpression parses a list expression starting immediately after the
// 'list' identifier. List expressions may not contain keyword arguments.
func parseListExpression(lex *lexer) (Value, error) {
	open, err := lex.next()
	if err != nil {
		return Value{}, err
	}
	if open.Text != "(" {
		return Value{}, &ParseError{
			Input:  lex.input,
			Offset: open.Start,
			Msg:    "expected '(' after list",
		}
	}
	args, kwargs, err := parseArgumentList(lex)
	if err != nil {
		return Value{}, err
	}
	if len(kwargs) > 0 {
		return Value{}, &ParseError{
			Input:  lex.input,
			Offset: open.Start,
			Msg:    "list expressions may not contain keyword arguments",
		}
	}
	return ListValue(args...), nil
}
