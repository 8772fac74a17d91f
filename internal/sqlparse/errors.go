package sqlparse

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// MissingClause means a required clause (SELECT or FROM) is absent.
	MissingClause ErrorKind = iota + 1

	// UnexpectedToken means a token appeared where the grammar does not
	// allow it.
	UnexpectedToken

	// UnbalancedParens means an opening or closing parenthesis has no
	// partner.
	UnbalancedParens
)

func (k ErrorKind) String() string {
	switch k {
	case MissingClause:
		return "MissingClause"
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnbalancedParens:
		return "UnbalancedParens"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError reports why template text could not be parsed.
type ParseError struct {
	Kind ErrorKind

	// Clause names the missing clause for MissingClause.
	Clause string

	// Pos is the byte offset of the offending token in the normalized text.
	Pos int

	// Found is the offending token text, or "end of input".
	Found string

	// Expected describes what the parser wanted instead.
	Expected string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MissingClause:
		return fmt.Sprintf("parse error: missing %s clause", e.Clause)
	case UnbalancedParens:
		return fmt.Sprintf("parse error at %d: unbalanced parenthesis %q", e.Pos, e.Found)
	default:
		if e.Expected != "" {
			return fmt.Sprintf("parse error at %d: unexpected %s, expected %s", e.Pos, e.Found, e.Expected)
		}
		return fmt.Sprintf("parse error at %d: unexpected %s", e.Pos, e.Found)
	}
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// KindOf returns the ErrorKind of a wrapped *ParseError, or 0.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
