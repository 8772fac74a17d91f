package store

import (
	"context"
	"fmt"

	"github.com/roach88/qassist/internal/ir"
)

// ReplaceTable stores a table snapshot, replacing any previous rows under
// the same name. Record order is preserved.
func (s *Store) ReplaceTable(ctx context.Context, table ir.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace table %q: begin tx: %w", table.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = ?`, table.Name); err != nil {
		return fmt.Errorf("replace table %q: %w", table.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO table_rows (table_name, seq, record)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("replace table %q: prepare: %w", table.Name, err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		data, err := marshalRecord(rec)
		if err != nil {
			return fmt.Errorf("replace table %q row %d: %w", table.Name, i, err)
		}
		if _, err := stmt.ExecContext(ctx, table.Name, i, data); err != nil {
			return fmt.Errorf("replace table %q row %d: %w", table.Name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace table %q: commit: %w", table.Name, err)
	}
	return nil
}

// LoadTables reads every stored table into an immutable snapshot. Tables
// come back in name order, records in stored order.
func (s *Store) LoadTables(ctx context.Context) (*ir.TableStore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, record
		FROM table_rows
		ORDER BY table_name COLLATE BINARY ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query table rows: %w", err)
	}
	defer rows.Close()

	var tables []ir.Table
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != name {
			tables = append(tables, ir.Table{Name: name})
		}
		last := &tables[len(tables)-1]
		last.Records = append(last.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return ir.NewTableStore(tables...), nil
}

// TableInfo summarizes one stored table.
type TableInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// ListTables returns stored tables with their row counts, in name order.
func (s *Store) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, COUNT(*)
		FROM table_rows
		GROUP BY table_name
		ORDER BY table_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	infos := []TableInfo{}
	for rows.Next() {
		var info TableInfo
		if err := rows.Scan(&info.Name, &info.Rows); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return infos, nil
}
