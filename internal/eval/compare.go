package eval

import (
	"strings"

	"github.com/roach88/qassist/internal/ir"
)

// Compare orders two non-null values for comparison operators, returning
// -1, 0 or 1. Mixed kinds coerce as follows:
//
//	Number vs String  numeric, if the string is a number
//	Date vs String    chronological, if the string is a date
//	String vs String  byte order
//	Bool vs Bool      false < true
//
// Every other pairing is a TypeMismatch.
func Compare(op string, a, b ir.Value) (int, error) {
	switch x := a.(type) {
	case ir.Number:
		if y, ok := ir.ToNumber(b); ok {
			return cmpFloat(float64(x), y), nil
		}
	case ir.String:
		switch y := b.(type) {
		case ir.String:
			return strings.Compare(string(x), string(y)), nil
		case ir.Number:
			if xf, ok := ir.ToNumber(x); ok {
				return cmpFloat(xf, float64(y)), nil
			}
		case ir.Date:
			if xt, ok := ir.ParseDate(string(x)); ok {
				return xt.Compare(y.Time()), nil
			}
		}
	case ir.Date:
		if y, ok := ir.ToDate(b); ok {
			return x.Time().Compare(y), nil
		}
	case ir.Bool:
		if y, ok := b.(ir.Bool); ok {
			return cmpBool(bool(x), bool(y)), nil
		}
	}
	return 0, mismatch(op, a, b)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// kindRank orders kinds that cannot be compared directly when sorting.
// Numeric strings rank with numbers.
func kindRank(v ir.Value) int {
	switch v.(type) {
	case ir.Number:
		return 0
	case ir.Date:
		return 1
	case ir.String:
		if _, ok := ir.ToNumber(v); ok {
			return 0
		}
		return 2
	case ir.Bool:
		return 3
	}
	return 4
}

// SortCompare is a total order over values for ORDER BY. Values that both
// read as numbers compare numerically, so "9" sorts before "10". Otherwise
// kinds are ranked Number < Date < String < Bool and values of the same kind
// use Compare. Null sorts after everything; direction handling for Null is
// the caller's concern.
func SortCompare(a, b ir.Value) int {
	an, bn := ir.IsNull(a), ir.IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	if af, ok := ir.ToNumber(a); ok {
		if bf, ok := ir.ToNumber(b); ok {
			return cmpFloat(af, bf)
		}
	}
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return cmpInt(ra, rb)
	}
	if c, err := Compare("ORDER BY", a, b); err == nil {
		return c
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
