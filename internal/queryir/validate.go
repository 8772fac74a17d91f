package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists the static problems found in a statement.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation, in discovery order.
	Problems []string
}

// Err returns nil for a valid result, otherwise an *InvalidError carrying
// every problem.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &InvalidError{Problems: r.Problems}
}

// InvalidError reports a statement that parsed but cannot be executed.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return "invalid statement: " + strings.Join(e.Problems, "; ")
}

// Validate checks the rules the parser cannot enforce on its own:
//  1. A table name is present.
//  2. Aggregates appear only in the projection list, never nested.
//  3. Every function call has an accepted argument count.
//  4. COUNT is the only function that takes *.
//  5. LIMIT values are non-negative.
//
// Statements built by sqlparse already satisfy the arity rules; Validate
// exists so statements constructed in code get the same checks.
//
// Validate is a pure function with no side effects.
func Validate(stmt *SelectStmt) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateSelect(stmt)
	return v.result()
}

// ValidateCompound validates every branch and checks that UNION ALL branches
// produce the same number of columns.
func ValidateCompound(c *Compound) ValidationResult {
	v := &validator{problems: []string{}}
	if c == nil || len(c.Selects) == 0 {
		v.add("empty statement")
		return v.result()
	}
	for _, s := range c.Selects {
		v.validateSelect(s)
	}
	first := c.Selects[0]
	for i, s := range c.Selects[1:] {
		if s == nil || first == nil {
			continue
		}
		if first.Star != s.Star {
			v.add("UNION ALL branch %d mixes * with explicit columns", i+2)
			continue
		}
		if len(first.Projections) != len(s.Projections) {
			v.add("UNION ALL branch %d has %d columns, first branch has %d",
				i+2, len(s.Projections), len(first.Projections))
		}
	}
	return v.result()
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) result() ValidationResult {
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

func (v *validator) validateSelect(s *SelectStmt) {
	if s == nil {
		v.add("nil SELECT")
		return
	}
	if s.Table == "" {
		v.add("missing table name")
	}
	if !s.Star && len(s.Projections) == 0 {
		v.add("empty projection list")
	}
	for _, p := range s.Projections {
		v.validateExpr(p.Expr, "SELECT", true)
	}
	if s.Where != nil {
		v.validateExpr(s.Where, "WHERE", false)
	}
	for _, k := range s.OrderBy {
		v.validateExpr(k.Expr, "ORDER BY", false)
	}
	if s.Limit != nil && (s.Limit.Offset < 0 || s.Limit.Count < 0) {
		v.add("negative LIMIT")
	}
}

// validateExpr walks one clause. allowAgg is true only at the top of a
// projection; it is cleared on entry to an aggregate so nesting is caught.
func (v *validator) validateExpr(e Expr, clause string, allowAgg bool) {
	if e == nil {
		v.add("nil expression in %s", clause)
		return
	}
	switch n := e.(type) {
	case *FieldRef, *Literal, *Param:
	case *FuncCall:
		if !n.Func.AcceptsArgs(len(n.Args)) && !(n.Star && n.Func == FuncCount) {
			minArgs, maxArgs := n.Func.Arity()
			if maxArgs < 0 {
				v.add("%s takes at least %d arguments, got %d", n.Func, minArgs, len(n.Args))
			} else {
				v.add("%s takes %d to %d arguments, got %d", n.Func, minArgs, maxArgs, len(n.Args))
			}
		}
		if n.Star && n.Func != FuncCount {
			v.add("%s(*) is not supported", n.Func)
		}
		inner := allowAgg
		if n.Func.IsAggregate() {
			if !allowAgg {
				v.add("aggregate %s not allowed in %s", n.Func, clause)
			}
			inner = false
		}
		for _, a := range n.Args {
			v.validateExpr(a, clause, inner)
		}
	case *BinOp:
		v.validateExpr(n.Left, clause, allowAgg)
		v.validateExpr(n.Right, clause, allowAgg)
	case *UnaryOp:
		v.validateExpr(n.Operand, clause, allowAgg)
	case *Case:
		if len(n.Whens) == 0 {
			v.add("CASE without WHEN in %s", clause)
		}
		for _, w := range n.Whens {
			v.validateExpr(w.Cond, clause, allowAgg)
			v.validateExpr(w.Result, clause, allowAgg)
		}
		if n.Else != nil {
			v.validateExpr(n.Else, clause, allowAgg)
		}
	case *InList:
		v.validateExpr(n.Expr, clause, allowAgg)
		for _, it := range n.Items {
			v.validateExpr(it, clause, allowAgg)
		}
	case *IsNull:
		v.validateExpr(n.Expr, clause, allowAgg)
	default:
		v.add("unknown expression type %T in %s", e, clause)
	}
}
