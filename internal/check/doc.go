// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

// Package check implements the small declarative expression language used by
// configspecs to describe configuration options ("checks").
//
// A check expression names a validator and parameterizes it with positional
// and keyword arguments:
//
//	integer(min=1, max=100, default=5)
//	option('yes', 'no', default='no')
//	list(default=list())
//	string
//
// The package provides the tokenizer, the recursive-descent expression
// parser, and the Check declaration type that is the normalized, immutable
// result of parsing. The reserved keywords "default" and "aliasof" are
// extracted during parsing and never reach the validator's own arguments.
//
// Check grammar (informal BNF):
//
//	check    := name ( '(' arglist ')' )?
//	arglist  := expr (',' expr)* | ''
//	expr     := kwexpr | value
//	kwexpr   := identifier '=' value
//	value    := string | number | identifier | listexpr
//	listexpr := 'list' '(' arglist ')'
package check
