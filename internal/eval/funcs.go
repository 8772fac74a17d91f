package eval

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
)

func evalCall(n *queryir.FuncCall, en env) (ir.Value, error) {
	if n.Func.IsAggregate() {
		return evalAggregate(n, en)
	}
	switch n.Func {
	case queryir.FuncConcat:
		var b strings.Builder
		for _, a := range n.Args {
			v, err := evalExpr(a, en)
			if err != nil {
				return nil, err
			}
			b.WriteString(ir.ToString(v))
		}
		return ir.String(b.String()), nil

	case queryir.FuncIfNull:
		v, err := evalExpr(n.Args[0], en)
		if err != nil {
			return nil, err
		}
		if !ir.IsEmpty(v) {
			return v, nil
		}
		// The default is returned as is, even when it is itself empty.
		return evalExpr(n.Args[1], en)

	case queryir.FuncCoalesce:
		// Arguments are evaluated lazily, left to right.
		for _, a := range n.Args {
			v, err := evalExpr(a, en)
			if err != nil {
				return nil, err
			}
			if !ir.IsEmpty(v) {
				return v, nil
			}
		}
		return ir.Null{}, nil

	case queryir.FuncRound:
		return evalRound(n, en)

	case queryir.FuncDateFormat:
		v, err := evalExpr(n.Args[0], en)
		if err != nil {
			return nil, err
		}
		pattern, err := evalExpr(n.Args[1], en)
		if err != nil {
			return nil, err
		}
		t, ok := ir.ToDate(v)
		if !ok {
			return ir.String(""), nil
		}
		return ir.String(DateFormat(t, ir.ToString(pattern))), nil
	}
	return nil, fmt.Errorf("eval: unsupported function %s", n.Func)
}

// evalRound is tolerant: an argument that is Null, non-numeric, or fails
// with a TypeMismatch rounds to 0 instead of failing the query.
func evalRound(n *queryir.FuncCall, en env) (ir.Value, error) {
	x, err := tolerantNumber(n.Args[0], en)
	if err != nil {
		return nil, err
	}
	digits := 0.0
	if len(n.Args) > 1 {
		d, err := tolerantNumber(n.Args[1], en)
		if err != nil {
			return nil, err
		}
		digits = math.Trunc(d)
	}
	scale := math.Pow(10, digits)
	r := math.Round(x*scale) / scale
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return ir.Number(0), nil
	}
	return ir.Number(r), nil
}

func tolerantNumber(e queryir.Expr, en env) (float64, error) {
	v, err := evalExpr(e, en)
	if err != nil {
		var ee *EvalError
		if errors.As(err, &ee) && ee.Kind == TypeMismatch {
			return 0, nil
		}
		return 0, err
	}
	f, ok := ir.ToNumber(v)
	if !ok {
		return 0, nil
	}
	return f, nil
}

func evalAggregate(n *queryir.FuncCall, en env) (ir.Value, error) {
	if !en.hasGroup {
		return nil, &EvalError{
			Kind:    AggregateMisuse,
			Op:      n.Func.String(),
			Message: "aggregates are only allowed in the projection list",
		}
	}
	if n.Star {
		return ir.Number(len(en.group)), nil
	}

	// Each group row is evaluated without a group so nested aggregates fail.
	vals := make([]ir.Value, 0, len(en.group))
	for _, row := range en.group {
		v, err := evalExpr(n.Args[0], env{rec: row})
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}

	switch n.Func {
	case queryir.FuncCount:
		count := 0
		for _, v := range vals {
			if !ir.IsEmpty(v) {
				count++
			}
		}
		return ir.Number(count), nil

	case queryir.FuncSum, queryir.FuncAvg:
		sum, count := 0.0, 0
		for _, v := range vals {
			if f, ok := ir.ToNumber(v); ok {
				sum += f
				count++
			}
		}
		if n.Func == queryir.FuncSum {
			return ir.Number(sum), nil
		}
		if count == 0 {
			return ir.Null{}, nil
		}
		return ir.Number(sum / float64(count)), nil

	case queryir.FuncMin, queryir.FuncMax:
		var best ir.Value = ir.Null{}
		for _, v := range vals {
			if ir.IsNull(v) {
				continue
			}
			if ir.IsNull(best) {
				best = v
				continue
			}
			c := SortCompare(v, best)
			if (n.Func == queryir.FuncMin && c < 0) || (n.Func == queryir.FuncMax && c > 0) {
				best = v
			}
		}
		return best, nil
	}
	return nil, fmt.Errorf("eval: unsupported aggregate %s", n.Func)
}

// DateFormat renders t using MySQL-style specifiers:
//
//	%Y year   %m month   %d day   %H hour   %i minute   %s second
//	%y two-digit year    %% literal percent
//
// Unknown specifiers are copied through unchanged.
func DateFormat(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 >= len(pattern) {
			b.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'i':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 's':
			fmt.Fprintf(&b, "%02d", t.Second())
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}
