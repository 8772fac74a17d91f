package engine

import (
	"slices"

	"github.com/roach88/qassist/internal/eval"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
)

// sortRows applies ORDER BY. Keys are evaluated once per row up front so an
// evaluation error surfaces instead of being swallowed by the comparator.
//
// Nulls sort last in both directions. Rows with equal keys keep snapshot
// order.
func sortRows(stmt *queryir.SelectStmt, rows []ir.Record) ([]ir.Record, error) {
	if len(stmt.OrderBy) == 0 || len(rows) < 2 {
		return rows, nil
	}
	keys := orderExprs(stmt)

	type keyed struct {
		rec  ir.Record
		vals []ir.Value
	}
	decorated := make([]keyed, len(rows))
	for i, rec := range rows {
		vals := make([]ir.Value, len(keys))
		for j, k := range keys {
			v, err := eval.Eval(k.Expr, rec)
			if err != nil {
				return nil, evalFailure(stmt.Table, "ORDER BY", err)
			}
			vals[j] = v
		}
		decorated[i] = keyed{rec: rec, vals: vals}
	}

	slices.SortStableFunc(decorated, func(a, b keyed) int {
		for j, k := range keys {
			if c := compareKey(a.vals[j], b.vals[j], k.Ascending); c != 0 {
				return c
			}
		}
		return 0
	})

	out := make([]ir.Record, len(decorated))
	for i, d := range decorated {
		out[i] = d.rec
	}
	return out, nil
}

func compareKey(a, b ir.Value, ascending bool) int {
	an, bn := ir.IsNull(a), ir.IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	c := eval.SortCompare(a, b)
	if !ascending {
		c = -c
	}
	return c
}

// orderExprs substitutes projection aliases: ORDER BY total where total is
// "COUNT(*) AS total" cannot be evaluated per row, and ORDER BY pct where pct
// is "ROUND(score * 100, 1) AS pct" should sort by the computed value.
// A name that is both an alias and a physical field resolves to the alias,
// matching MySQL.
func orderExprs(stmt *queryir.SelectStmt) []queryir.OrderKey {
	aliases := make(map[string]queryir.Expr, len(stmt.Projections))
	for _, p := range stmt.Projections {
		if _, dup := aliases[p.Alias]; !dup {
			aliases[p.Alias] = p.Expr
		}
	}
	out := make([]queryir.OrderKey, len(stmt.OrderBy))
	for i, k := range stmt.OrderBy {
		out[i] = k
		ref, ok := k.Expr.(*queryir.FieldRef)
		if !ok {
			continue
		}
		if e, ok := aliases[ref.Name]; ok && !queryir.ContainsAggregate(e) {
			out[i].Expr = e
		}
	}
	return out
}
