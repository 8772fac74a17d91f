package eval

import (
	"fmt"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
)

// env is the evaluation context: the current record and, inside a
// projection with aggregates, the rows aggregates range over.
type env struct {
	rec      ir.Record
	group    []ir.Record
	hasGroup bool
}

// Eval evaluates e against rec. Aggregates are not allowed.
func Eval(e queryir.Expr, rec ir.Record) (ir.Value, error) {
	return evalExpr(e, env{rec: rec})
}

// EvalAggregate evaluates a projection expression. Aggregate calls range
// over group; other field references read rec.
func EvalAggregate(e queryir.Expr, rec ir.Record, group []ir.Record) (ir.Value, error) {
	return evalExpr(e, env{rec: rec, group: group, hasGroup: true})
}

// Matches evaluates a WHERE predicate. A nil predicate matches every record.
func Matches(pred queryir.Expr, rec ir.Record) (bool, error) {
	if pred == nil {
		return true, nil
	}
	v, err := Eval(pred, rec)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.Bool)
	if !ok {
		return false, &EvalError{
			Kind:     NotBoolean,
			Op:       "WHERE",
			Operands: []ir.Kind{kindOf(v)},
			Message:  fmt.Sprintf("predicate %s is not boolean", queryir.FormatExpr(pred)),
		}
	}
	return bool(b), nil
}

func kindOf(v ir.Value) ir.Kind {
	if v == nil {
		return ir.KindNull
	}
	return v.Kind()
}

func evalExpr(e queryir.Expr, en env) (ir.Value, error) {
	switch n := e.(type) {
	case *queryir.FieldRef:
		return en.rec.Get(n.Name), nil
	case *queryir.Literal:
		if n.Value == nil {
			return ir.Null{}, nil
		}
		return n.Value, nil
	case *queryir.Param:
		return nil, &EvalError{Kind: UnboundParameter, Op: "?", Message: fmt.Sprintf("placeholder %d is unbound", n.Index+1)}
	case *queryir.FuncCall:
		return evalCall(n, en)
	case *queryir.BinOp:
		return evalBinOp(n, en)
	case *queryir.UnaryOp:
		return evalUnary(n, en)
	case *queryir.Case:
		return evalCase(n, en)
	case *queryir.InList:
		return evalIn(n, en)
	case *queryir.IsNull:
		v, err := evalExpr(n.Expr, en)
		if err != nil {
			return nil, err
		}
		return ir.Bool(ir.IsNull(v) != n.Negated), nil
	default:
		return nil, fmt.Errorf("eval: unknown expression type %T", e)
	}
}

func evalBinOp(n *queryir.BinOp, en env) (ir.Value, error) {
	switch n.Op {
	case queryir.OpAnd, queryir.OpOr:
		return evalLogical(n, en)
	}

	left, err := evalExpr(n.Left, en)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(n.Right, en)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Op == queryir.OpLike || n.Op == queryir.OpNotLike:
		if ir.IsNull(left) || ir.IsNull(right) {
			return ir.Bool(false), nil
		}
		m := Like(ir.ToString(left), ir.ToString(right))
		return ir.Bool(m == (n.Op == queryir.OpLike)), nil
	case n.Op.IsComparison():
		if ir.IsNull(left) || ir.IsNull(right) {
			return ir.Bool(false), nil
		}
		c, err := Compare(n.Op.String(), left, right)
		if err != nil {
			return nil, err
		}
		return ir.Bool(compareResult(n.Op, c)), nil
	case n.Op.IsArithmetic():
		return arithmetic(n.Op, left, right)
	}
	return nil, fmt.Errorf("eval: unsupported binary operator %s", n.Op)
}

func compareResult(op queryir.Op, c int) bool {
	switch op {
	case queryir.OpEq:
		return c == 0
	case queryir.OpNe:
		return c != 0
	case queryir.OpLt:
		return c < 0
	case queryir.OpGt:
		return c > 0
	case queryir.OpLe:
		return c <= 0
	case queryir.OpGe:
		return c >= 0
	}
	return false
}

// evalLogical short-circuits: the right operand of AND is not evaluated
// when the left is false, so a type error there does not surface.
func evalLogical(n *queryir.BinOp, en env) (ir.Value, error) {
	left, err := evalBool(n.Op.String(), n.Left, en)
	if err != nil {
		return nil, err
	}
	if n.Op == queryir.OpAnd && !left {
		return ir.Bool(false), nil
	}
	if n.Op == queryir.OpOr && left {
		return ir.Bool(true), nil
	}
	right, err := evalBool(n.Op.String(), n.Right, en)
	if err != nil {
		return nil, err
	}
	return ir.Bool(right), nil
}

func evalBool(op string, e queryir.Expr, en env) (bool, error) {
	v, err := evalExpr(e, en)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.Bool)
	if !ok {
		return false, &EvalError{
			Kind:     NotBoolean,
			Op:       op,
			Operands: []ir.Kind{kindOf(v)},
			Message:  fmt.Sprintf("operand %s is not boolean", queryir.FormatExpr(e)),
		}
	}
	return bool(b), nil
}

func arithmetic(op queryir.Op, left, right ir.Value) (ir.Value, error) {
	if ir.IsNull(left) || ir.IsNull(right) {
		return ir.Null{}, nil
	}
	a, okA := ir.ToNumber(left)
	b, okB := ir.ToNumber(right)
	if !okA || !okB {
		return nil, mismatch(op.String(), left, right)
	}
	switch op {
	case queryir.OpAdd:
		return ir.Number(a + b), nil
	case queryir.OpSub:
		return ir.Number(a - b), nil
	case queryir.OpMul:
		return ir.Number(a * b), nil
	case queryir.OpDiv:
		if b == 0 {
			return ir.Null{}, nil
		}
		return ir.Number(a / b), nil
	}
	return nil, fmt.Errorf("eval: unsupported arithmetic operator %s", op)
}

func evalUnary(n *queryir.UnaryOp, en env) (ir.Value, error) {
	if n.Op == queryir.OpNot {
		b, err := evalBool("NOT", n.Operand, en)
		if err != nil {
			return nil, err
		}
		return ir.Bool(!b), nil
	}
	v, err := evalExpr(n.Operand, en)
	if err != nil {
		return nil, err
	}
	if ir.IsNull(v) {
		return ir.Null{}, nil
	}
	f, ok := ir.ToNumber(v)
	if !ok {
		return nil, mismatch("-", v)
	}
	return ir.Number(-f), nil
}

func evalCase(n *queryir.Case, en env) (ir.Value, error) {
	for _, w := range n.Whens {
		ok, err := evalBool("CASE", w.Cond, en)
		if err != nil {
			return nil, err
		}
		if ok {
			return evalExpr(w.Result, en)
		}
	}
	if n.Else == nil {
		return ir.Null{}, nil
	}
	return evalExpr(n.Else, en)
}

func evalIn(n *queryir.InList, en env) (ir.Value, error) {
	v, err := evalExpr(n.Expr, en)
	if err != nil {
		return nil, err
	}
	if ir.IsNull(v) {
		return ir.Bool(false), nil
	}
	for _, item := range n.Items {
		iv, err := evalExpr(item, en)
		if err != nil {
			return nil, err
		}
		if ir.IsNull(iv) {
			continue
		}
		c, err := Compare("IN", v, iv)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			return ir.Bool(!n.Negated), nil
		}
	}
	return ir.Bool(n.Negated), nil
}
