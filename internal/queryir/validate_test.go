package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
)

func countStar() *FuncCall { return &FuncCall{Func: FuncCount, Star: true} }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		stmt    *SelectStmt
		valid   bool
		problem string
	}{
		{
			name:  "star select",
			stmt:  &SelectStmt{Star: true, Table: "inventory"},
			valid: true,
		},
		{
			name: "aggregate in projection",
			stmt: &SelectStmt{
				Table:       "inventory",
				Projections: []ProjectionItem{{Expr: countStar(), Alias: "total"}},
			},
			valid: true,
		},
		{
			name:    "missing table",
			stmt:    &SelectStmt{Star: true},
			problem: "missing table name",
		},
		{
			name:    "empty projection",
			stmt:    &SelectStmt{Table: "t"},
			problem: "empty projection list",
		},
		{
			name: "aggregate in where",
			stmt: &SelectStmt{
				Star:  true,
				Table: "t",
				Where: &BinOp{Op: OpGt, Left: countStar(), Right: Lit(ir.Number(1))},
			},
			problem: "aggregate COUNT not allowed in WHERE",
		},
		{
			name: "aggregate in order by",
			stmt: &SelectStmt{
				Star:    true,
				Table:   "t",
				OrderBy: []OrderKey{{Expr: &FuncCall{Func: FuncSum, Args: []Expr{Ref("qty")}}}},
			},
			problem: "aggregate SUM not allowed in ORDER BY",
		},
		{
			name: "nested aggregate",
			stmt: &SelectStmt{
				Table: "t",
				Projections: []ProjectionItem{{
					Expr:  &FuncCall{Func: FuncSum, Args: []Expr{countStar()}},
					Alias: "x",
				}},
			},
			problem: "aggregate COUNT not allowed in SELECT",
		},
		{
			name: "bad arity",
			stmt: &SelectStmt{
				Table:       "t",
				Projections: []ProjectionItem{{Expr: &FuncCall{Func: FuncIfNull, Args: []Expr{Ref("a")}}, Alias: "x"}},
			},
			problem: "IFNULL takes 2 to 2 arguments, got 1",
		},
		{
			name: "star on non-count",
			stmt: &SelectStmt{
				Table:       "t",
				Projections: []ProjectionItem{{Expr: &FuncCall{Func: FuncSum, Star: true, Args: []Expr{Ref("a")}}, Alias: "x"}},
			},
			problem: "SUM(*) is not supported",
		},
		{
			name:    "negative limit",
			stmt:    &SelectStmt{Star: true, Table: "t", Limit: &Limit{Offset: -1, Count: 2}},
			problem: "negative LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.stmt)
			assert.Equal(t, tt.valid, result.Valid, "problems: %v", result.Problems)
			if tt.problem != "" {
				assert.Contains(t, result.Problems, tt.problem)
				require.Error(t, result.Err())
			} else {
				assert.NoError(t, result.Err())
			}
		})
	}
}

func TestValidateCompound(t *testing.T) {
	one := func(alias string) *SelectStmt {
		return &SelectStmt{Table: "t", Projections: []ProjectionItem{{Expr: Ref("a"), Alias: alias}}}
	}
	two := &SelectStmt{Table: "t", Projections: []ProjectionItem{
		{Expr: Ref("a"), Alias: "a"},
		{Expr: Ref("b"), Alias: "b"},
	}}

	assert.True(t, ValidateCompound(&Compound{Selects: []*SelectStmt{one("x"), one("y")}}).Valid)

	result := ValidateCompound(&Compound{Selects: []*SelectStmt{one("x"), two}})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems, "UNION ALL branch 2 has 2 columns, first branch has 1")

	result = ValidateCompound(&Compound{Selects: []*SelectStmt{one("x"), {Star: true, Table: "t"}}})
	assert.Contains(t, result.Problems, "UNION ALL branch 2 mixes * with explicit columns")

	assert.False(t, ValidateCompound(&Compound{}).Valid)
}
