package engine

import (
	"slices"

	"github.com/roach88/qassist/internal/eval"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
)

// Execute runs a single bound statement against a table snapshot.
//
// The result is a new slice of new records; the snapshot is never modified.
// An empty result is an empty, non-nil slice.
func Execute(stmt *queryir.SelectStmt, tables *ir.TableStore) ([]ir.Record, error) {
	table, ok := tables.Table(stmt.Table)
	if !ok {
		return nil, &ExecError{
			Code:    ErrCodeUnknownTable,
			Message: "table not found in snapshot",
			Table:   stmt.Table,
		}
	}
	if queryir.HasParams(stmt) {
		return nil, &ExecError{
			Code:    ErrCodeUnbound,
			Message: "statement has unbound ? placeholders",
			Table:   stmt.Table,
		}
	}

	rows, err := filterRows(stmt, table)
	if err != nil {
		return nil, err
	}
	rows, err = sortRows(stmt, rows)
	if err != nil {
		return nil, err
	}

	if stmt.HasAggregate() {
		return projectAggregate(stmt, rows)
	}
	return project(stmt, paginate(rows, stmt.Limit), nil)
}

// ExecuteCompound runs every branch of c and concatenates the results.
// Rows of later branches are renamed positionally to the first branch's
// column names. Fields returns those names.
func ExecuteCompound(c *queryir.Compound, tables *ir.TableStore) ([]ir.Record, error) {
	var out []ir.Record
	first := c.Selects[0]
	for i, stmt := range c.Selects {
		if i > 0 && !first.Star && len(stmt.Projections) != len(first.Projections) {
			return nil, &ExecError{
				Code:    ErrCodeShape,
				Message: "UNION ALL branches have different column counts",
				Table:   stmt.Table,
			}
		}
		rows, err := Execute(stmt, tables)
		if err != nil {
			return nil, err
		}
		if i > 0 && !first.Star {
			rows = renameColumns(rows, stmt.Aliases(), first.Aliases())
		}
		out = append(out, rows...)
	}
	if out == nil {
		out = []ir.Record{}
	}
	return out, nil
}

func renameColumns(rows []ir.Record, from, to []string) []ir.Record {
	out := make([]ir.Record, len(rows))
	for i, r := range rows {
		var renamed ir.Record
		for j, name := range from {
			renamed.Set(to[j], r.Get(name))
		}
		out[i] = renamed
	}
	return out
}

// Fields returns the column names of a result: the projection aliases, or
// for SELECT * the union of physical field names in first-seen order.
func Fields(c *queryir.Compound, rows []ir.Record) []string {
	first := c.Selects[0]
	if !first.Star {
		return dedupe(first.Aliases())
	}
	t := ir.Table{Records: rows}
	return t.FieldNames()
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func filterRows(stmt *queryir.SelectStmt, table *ir.Table) ([]ir.Record, error) {
	if stmt.Where == nil {
		return slices.Clone(table.Records), nil
	}
	rows := make([]ir.Record, 0, len(table.Records))
	for _, rec := range table.Records {
		ok, err := eval.Matches(stmt.Where, rec)
		if err != nil {
			return nil, evalFailure(stmt.Table, "WHERE", err)
		}
		if ok {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

// paginate applies LIMIT. An offset past the end yields an empty slice.
func paginate(rows []ir.Record, limit *queryir.Limit) []ir.Record {
	if limit == nil {
		return rows
	}
	if limit.Offset >= len(rows) {
		return []ir.Record{}
	}
	end := limit.Offset + limit.Count
	if end > len(rows) || end < limit.Offset {
		end = len(rows)
	}
	return rows[limit.Offset:end]
}

// project evaluates the SELECT list for each row. group is the set
// aggregates range over; nil when the statement has none.
func project(stmt *queryir.SelectStmt, rows []ir.Record, group []ir.Record) ([]ir.Record, error) {
	out := make([]ir.Record, 0, len(rows))
	for _, rec := range rows {
		if stmt.Star {
			out = append(out, rec.Clone())
			continue
		}
		var row ir.Record
		for _, p := range stmt.Projections {
			var (
				v   ir.Value
				err error
			)
			if group != nil {
				v, err = eval.EvalAggregate(p.Expr, rec, group)
			} else {
				v, err = eval.Eval(p.Expr, rec)
			}
			if err != nil {
				return nil, evalFailure(stmt.Table, "SELECT", err)
			}
			row.Set(p.Alias, v)
		}
		out = append(out, row)
	}
	return out, nil
}

// projectAggregate handles SELECT lists containing aggregates. Aggregates
// always see every filtered row. If no projection reads a row field
// directly, the result is one summary row; otherwise each paginated row
// carries the aggregate values alongside its own fields.
func projectAggregate(stmt *queryir.SelectStmt, rows []ir.Record) ([]ir.Record, error) {
	group := rows
	if group == nil {
		group = []ir.Record{}
	}
	summary := true
	for _, p := range stmt.Projections {
		if !queryir.RowIndependent(p.Expr) {
			summary = false
			break
		}
	}
	if summary {
		out, err := project(stmt, []ir.Record{ir.NewRecord()}, group)
		if err != nil {
			return nil, err
		}
		return paginate(out, stmt.Limit), nil
	}
	return project(stmt, paginate(rows, stmt.Limit), group)
}
