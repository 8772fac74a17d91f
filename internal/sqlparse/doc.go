// Package sqlparse turns rule template text into query IR.
//
// The dialect is a single-table SELECT with WHERE, ORDER BY, LIMIT and
// UNION ALL, plus the built-in functions listed in queryir. Tokens come
// from a participle lexer; the grammar is a hand-written recursive descent
// parser so that error kinds and positions are under our control.
//
// Keywords are case-insensitive. Identifiers may contain any Unicode letter,
// which lets templates alias columns with the labels users type, and may be
// wrapped in backticks when they contain spaces or collide with a keyword.
//
// Parse errors are always *ParseError. Positions are byte offsets into the
// whitespace-normalized text returned by Normalize.
package sqlparse
