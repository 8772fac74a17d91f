package eval

import (
	"errors"
	"fmt"

	"github.com/roach88/qassist/internal/ir"
)

// ErrorKind classifies an evaluation failure.
type ErrorKind int

const (
	// TypeMismatch means an operator or function received values it cannot
	// coerce to a common kind.
	TypeMismatch ErrorKind = iota + 1

	// NotBoolean means a predicate position produced a non-Bool value.
	NotBoolean

	// AggregateMisuse means an aggregate was evaluated outside a projection.
	AggregateMisuse

	// UnboundParameter means a ? placeholder reached the evaluator.
	UnboundParameter
)

func (k ErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case NotBoolean:
		return "NotBoolean"
	case AggregateMisuse:
		return "AggregateMisuse"
	case UnboundParameter:
		return "UnboundParameter"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// EvalError reports a failed evaluation.
type EvalError struct {
	Kind ErrorKind

	// Op names the operator or function that failed.
	Op string

	// Operands holds the kinds of the values involved.
	Operands []ir.Kind

	Message string
}

func (e *EvalError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s in %s: %s", e.Kind, e.Op, e.Message)
	}
	return fmt.Sprintf("%s in %s: operands %v", e.Kind, e.Op, e.Operands)
}

func mismatch(op string, vals ...ir.Value) *EvalError {
	kinds := make([]ir.Kind, len(vals))
	for i, v := range vals {
		if v == nil {
			kinds[i] = ir.KindNull
			continue
		}
		kinds[i] = v.Kind()
	}
	return &EvalError{Kind: TypeMismatch, Op: op, Operands: kinds}
}

// IsKind reports whether err is or wraps an *EvalError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Kind == kind
}
