package engine

import (
	"errors"
	"fmt"
)

// ExecErrorCode categorizes execution errors.
type ExecErrorCode string

const (
	// ErrCodeUnknownTable indicates the statement reads a table that is not
	// in the snapshot.
	ErrCodeUnknownTable ExecErrorCode = "UNKNOWN_TABLE"

	// ErrCodeEval indicates an expression failed on some record.
	ErrCodeEval ExecErrorCode = "EVAL_FAILED"

	// ErrCodeUnbound indicates a statement still has ? placeholders.
	ErrCodeUnbound ExecErrorCode = "UNBOUND_PARAMETER"

	// ErrCodeShape indicates UNION ALL branches disagree on column count.
	ErrCodeShape ExecErrorCode = "SHAPE_MISMATCH"
)

// ExecError represents a failure while executing a statement.
type ExecError struct {
	// Code identifies the error category.
	Code ExecErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the table being read.
	Table string

	// Clause names where evaluation failed (WHERE, ORDER BY, SELECT).
	Clause string

	// Err is the underlying evaluation error, if any.
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Clause != "" {
		return fmt.Sprintf("%s: %s (table=%s, clause=%s)", e.Code, msg, e.Table, e.Clause)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, msg, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap exposes the underlying evaluation error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsUnknownTable returns true if err is an ExecError for a missing table.
// Uses errors.As to handle wrapped errors.
func IsUnknownTable(err error) bool {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnknownTable
	}
	return false
}

func evalFailure(table, clause string, err error) *ExecError {
	return &ExecError{Code: ErrCodeEval, Table: table, Clause: clause, Err: err}
}
