package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/sqlparse"
)

func sampleRecord() ir.Record {
	return ir.NewRecord(
		ir.F("material_name", ir.String("Bolt M8")),
		ir.F("qty", ir.Number(12)),
		ir.F("price", ir.String("2.50")),
		ir.F("score", ir.String("abc")),
		ir.F("status", ir.String("in_stock")),
		ir.F("supplier", ir.Null{}),
		ir.F("note", ir.String("")),
		ir.F("created", ir.NewDate(2024, 3, 7)),
		ir.F("active", ir.Bool(true)),
	)
}

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want ir.Value
	}{
		{"qty", ir.Number(12)},
		{"missing_field", ir.Null{}},
		{"qty + 1", ir.Number(13)},
		{"qty * price", ir.Number(30)},
		{"qty / 0", ir.Null{}},
		{"supplier + 1", ir.Null{}},
		{"-qty", ir.Number(-12)},
		{"qty > 10", ir.Bool(true)},
		{"qty = '12'", ir.Bool(true)},
		{"price < 3", ir.Bool(true)},
		{"status = 'in_stock'", ir.Bool(true)},
		{"status <> 'in_stock'", ir.Bool(false)},
		{"supplier = 'x'", ir.Bool(false)},
		{"supplier <> 'x'", ir.Bool(false)},
		{"supplier IS NULL", ir.Bool(true)},
		{"note IS NULL", ir.Bool(false)},
		{"qty IS NOT NULL", ir.Bool(true)},
		{"created >= '2024-03-01'", ir.Bool(true)},
		{"created < '2024-03-07 10:00:00'", ir.Bool(true)},
		{"active = TRUE", ir.Bool(true)},
		{"status IN ('a', 'in_stock')", ir.Bool(true)},
		{"status NOT IN ('a', 'b')", ir.Bool(true)},
		{"supplier IN ('x')", ir.Bool(false)},
		{"qty BETWEEN 10 AND 20", ir.Bool(true)},
		{"material_name LIKE 'bolt%'", ir.Bool(true)},
		{"material_name LIKE '%M8'", ir.Bool(true)},
		{"material_name LIKE '%LT M%'", ir.Bool(true)},
		{"material_name NOT LIKE '%nut%'", ir.Bool(true)},
		{"supplier LIKE '%'", ir.Bool(false)},
		{"CONCAT(material_name, '-', qty)", ir.String("Bolt M8-12")},
		{"CONCAT(supplier, 'x')", ir.String("x")},
		{"COALESCE(supplier, note, status)", ir.String("in_stock")},
		{"COALESCE(supplier, note)", ir.Null{}},
		{"IFNULL(supplier, 'unknown')", ir.String("unknown")},
		{"IFNULL(status, 'unknown')", ir.String("in_stock")},
		{"IFNULL(supplier, '')", ir.String("")},
		{"IFNULL(supplier, note)", ir.String("")},
		{"IFNULL(note, supplier)", ir.Null{}},
		{"COALESCE(supplier, '')", ir.Null{}},
		{"ROUND(price)", ir.Number(3)},
		{"ROUND(2.346, 2)", ir.Number(2.35)},
		{"ROUND(-2.5)", ir.Number(-3)},
		{"ROUND(score * 100, 1)", ir.Number(0)},
		{"ROUND(supplier, 1)", ir.Number(0)},
		{"DATE_FORMAT(created, '%Y-%m-%d')", ir.String("2024-03-07")},
		{"DATE_FORMAT('2024-03-07 09:05:01', '%Y/%m/%d %H:%i:%s')", ir.String("2024/03/07 09:05:01")},
		{"DATE_FORMAT(created, '%y%% %Q')", ir.String("24% %Q")},
		{"DATE_FORMAT(status, '%Y')", ir.String("")},
		{"DATE_FORMAT(supplier, '%Y')", ir.String("")},
		{"CASE WHEN qty > 100 THEN 'many' WHEN qty > 10 THEN 'some' ELSE 'few' END", ir.String("some")},
		{"CASE status WHEN 'gone' THEN 1 END", ir.Null{}},
		{"qty > 100 AND score > 1", ir.Bool(false)},
		{"qty > 1 OR score > 1", ir.Bool(true)},
		{"NOT qty > 100", ir.Bool(true)},
	}

	rec := sampleRecord()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := sqlparse.ParseExpr(tt.expr)
			require.NoError(t, err)

			got, err := Eval(e, rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		expr string
		kind ErrorKind
	}{
		{"score > 1", TypeMismatch},
		{"score * 2", TypeMismatch},
		{"created > 5", TypeMismatch},
		{"active = 1", TypeMismatch},
		{"-status", TypeMismatch},
		{"status IN (1)", TypeMismatch},
		{"qty AND TRUE", NotBoolean},
		{"NOT qty", NotBoolean},
		{"CASE WHEN qty THEN 1 END", NotBoolean},
		{"COUNT(*)", AggregateMisuse},
		{"qty = ?", UnboundParameter},
	}

	rec := sampleRecord()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := sqlparse.ParseExpr(tt.expr)
			require.NoError(t, err)

			_, err = Eval(e, rec)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestMatches(t *testing.T) {
	rec := sampleRecord()

	ok, err := Matches(nil, rec)
	require.NoError(t, err)
	assert.True(t, ok)

	pred, err := sqlparse.ParseExpr("qty > 10 AND status LIKE 'IN_%'")
	require.NoError(t, err)
	ok, err = Matches(pred, rec)
	require.NoError(t, err)
	assert.True(t, ok)

	pred, err = sqlparse.ParseExpr("material_name")
	require.NoError(t, err)
	_, err = Matches(pred, rec)
	require.Error(t, err)
	assert.True(t, IsKind(err, NotBoolean))
	assert.Contains(t, err.Error(), "predicate material_name is not boolean")
}

func TestMatches_Deterministic(t *testing.T) {
	pred, err := sqlparse.ParseExpr("qty >= 12 AND (supplier IS NULL OR supplier = 'x')")
	require.NoError(t, err)
	rec := sampleRecord()

	first, err := Matches(pred, rec)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Matches(pred, rec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvalAggregate(t *testing.T) {
	group := []ir.Record{
		ir.NewRecord(ir.F("qty", ir.Number(5)), ir.F("name", ir.String("b"))),
		ir.NewRecord(ir.F("qty", ir.String("7")), ir.F("name", ir.String("a"))),
		ir.NewRecord(ir.F("qty", ir.Null{}), ir.F("name", ir.String(""))),
		ir.NewRecord(ir.F("qty", ir.String("n/a")), ir.F("name", ir.String("c"))),
	}

	tests := []struct {
		expr string
		want ir.Value
	}{
		{"COUNT(*)", ir.Number(4)},
		{"COUNT(name)", ir.Number(3)},
		{"SUM(qty)", ir.Number(12)},
		{"AVG(qty)", ir.Number(6)},
		{"MIN(qty)", ir.Number(5)},
		{"MAX(name)", ir.String("c")},
		{"MIN(name)", ir.String("")},
		{"ROUND(AVG(qty) / 4, 1)", ir.Number(1.5)},
		{"COUNT(*) * 10", ir.Number(40)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := sqlparse.ParseExpr(tt.expr)
			require.NoError(t, err)

			got, err := EvalAggregate(e, ir.NewRecord(), group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalAggregate_EmptyGroup(t *testing.T) {
	for expr, want := range map[string]ir.Value{
		"COUNT(*)": ir.Number(0),
		"SUM(qty)": ir.Number(0),
		"AVG(qty)": ir.Null{},
		"MIN(qty)": ir.Null{},
		"MAX(qty)": ir.Null{},
	} {
		e, err := sqlparse.ParseExpr(expr)
		require.NoError(t, err)
		got, err := EvalAggregate(e, ir.NewRecord(), nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, expr)
	}
}

func TestEvalAggregate_NestedAggregateFails(t *testing.T) {
	e, err := sqlparse.ParseExpr("SUM(COUNT(*))")
	require.NoError(t, err)
	_, err = EvalAggregate(e, ir.NewRecord(), []ir.Record{ir.NewRecord()})
	require.Error(t, err)
	assert.True(t, IsKind(err, AggregateMisuse))
}
