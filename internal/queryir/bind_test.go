package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
)

func paramStmt() *Compound {
	return Single(&SelectStmt{
		Star:  true,
		Table: "inventory",
		Where: &BinOp{
			Op:    OpAnd,
			Left:  &BinOp{Op: OpEq, Left: Ref("supplier"), Right: &Param{Index: 0}},
			Right: &BinOp{Op: OpEq, Left: Ref("batch"), Right: &Param{Index: 1}},
		},
	})
}

func TestBind(t *testing.T) {
	stmt := paramStmt()
	require.Equal(t, 2, stmt.ParamCount())

	bound, err := Bind(stmt, []string{"Acme", "B-1", "extra"})
	require.NoError(t, err)
	assert.Equal(t, 0, bound.ParamCount())
	assert.False(t, HasParams(bound.Selects[0]))

	where := bound.Selects[0].Where.(*BinOp)
	left := where.Left.(*BinOp)
	assert.Equal(t, Lit(ir.String("Acme")), left.Right)

	// The source statement keeps its placeholders.
	assert.Equal(t, 2, stmt.ParamCount())
}

func TestBind_MissingParameter(t *testing.T) {
	_, err := Bind(paramStmt(), []string{"Acme"})
	require.Error(t, err)

	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, 1, be.Have)
	assert.Contains(t, err.Error(), "missing parameter")
}

func TestBind_InjectionStaysLiteral(t *testing.T) {
	payload := "'; DROP TABLE x; --"
	bound, err := Bind(paramStmt(), []string{payload, "B"})
	require.NoError(t, err)

	sql := Format(bound)
	assert.Equal(t,
		"SELECT * FROM inventory WHERE supplier = '''; DROP TABLE x; --' AND batch = 'B'",
		sql)
}
