package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
)

func TestRowIndependent(t *testing.T) {
	assert.True(t, RowIndependent(countStar()))
	assert.True(t, RowIndependent(&FuncCall{Func: FuncSum, Args: []Expr{Ref("qty")}}))
	assert.True(t, RowIndependent(&FuncCall{Func: FuncRound, Args: []Expr{
		&FuncCall{Func: FuncAvg, Args: []Expr{Ref("qty")}}, Lit(ir.Number(1)),
	}}))
	assert.True(t, RowIndependent(Lit(ir.String("x"))))
	assert.False(t, RowIndependent(Ref("qty")))
	assert.False(t, RowIndependent(&BinOp{Op: OpAdd, Left: countStar(), Right: Ref("qty")}))
}

func TestContainsAggregate(t *testing.T) {
	assert.True(t, ContainsAggregate(&BinOp{Op: OpAdd, Left: Ref("a"), Right: countStar()}))
	assert.False(t, ContainsAggregate(&FuncCall{Func: FuncConcat, Args: []Expr{Ref("a")}}))
}

func TestFieldRefs(t *testing.T) {
	e := &BinOp{Op: OpAnd,
		Left:  &BinOp{Op: OpEq, Left: Ref("b"), Right: Ref("a")},
		Right: &IsNull{Expr: Ref("b")},
	}
	assert.Equal(t, []string{"b", "a"}, FieldRefs(e))
}

func TestRewriteSelect_DoesNotMutateInput(t *testing.T) {
	src := &SelectStmt{
		Table:       "t",
		Projections: []ProjectionItem{{Expr: Ref("a"), Alias: "a"}},
		Where:       &BinOp{Op: OpEq, Left: Ref("a"), Right: Lit(ir.Number(1))},
		OrderBy:     []OrderKey{{Expr: Ref("a"), Ascending: true}},
		Limit:       &Limit{Count: 2},
	}
	upper := func(e Expr) (Expr, error) {
		if f, ok := e.(*FieldRef); ok {
			return Ref(f.Name + "_x"), nil
		}
		return e, nil
	}

	out, err := RewriteSelect(src, upper, nil)
	require.NoError(t, err)

	assert.Equal(t, "SELECT a_x AS a FROM t WHERE a_x = 1 ORDER BY a_x LIMIT 2", FormatSelect(out))
	assert.Equal(t, "SELECT a FROM t WHERE a = 1 ORDER BY a LIMIT 2", FormatSelect(src))

	out.Limit.Count = 9
	assert.Equal(t, 2, src.Limit.Count)
}

func TestClone(t *testing.T) {
	src := paramStmt()
	c := src.Clone()
	assert.Equal(t, Format(src), Format(c))
	c.Selects[0].Table = "other"
	assert.Equal(t, "inventory", src.Selects[0].Table)
}
