package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// QueryLogEntry is one answered query.
type QueryLogEntry struct {
	ID       string `json:"id"`
	Input    string `json:"input"`
	RuleName string `json:"rule_name,omitempty"`
	Status   string `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Message  string `json:"message,omitempty"`
	RowCount int    `json:"row_count"`
	SQLUsed  string `json:"sql_used,omitempty"`
}

// AppendQueryLog records a query. Uses ON CONFLICT(id) DO NOTHING so
// writing the same entry twice is harmless.
func (s *Store) AppendQueryLog(ctx context.Context, e QueryLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log
		(id, input, rule_name, status, stage, message, row_count, sql_used)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Input,
		e.RuleName,
		e.Status,
		e.Stage,
		e.Message,
		e.RowCount,
		e.SQLUsed,
	)
	if err != nil {
		return fmt.Errorf("append query log: %w", err)
	}
	return nil
}

// LogFilter narrows ReadQueryLog. Zero values match everything.
type LogFilter struct {
	RuleName string
	Status   string

	// Limit keeps only the most recent entries. 0 means no limit.
	Limit int
}

// ReadQueryLog returns log entries oldest first.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadQueryLog(ctx context.Context, f LogFilter) ([]QueryLogEntry, error) {
	query := `
		SELECT id, input, rule_name, status, stage, message, row_count, sql_used
		FROM query_log
		WHERE (? = '' OR rule_name = ?)
		  AND (? = '' OR status = ?)
		ORDER BY seq DESC, id COLLATE BINARY DESC
	`
	args := []any{f.RuleName, f.RuleName, f.Status, f.Status}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	entries := []QueryLogEntry{}
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query log: %w", err)
	}

	// Newest-first selection, oldest-first output.
	slices.Reverse(entries)
	return entries, nil
}

func scanLogEntry(rows *sql.Rows) (QueryLogEntry, error) {
	var e QueryLogEntry
	if err := rows.Scan(
		&e.ID, &e.Input, &e.RuleName, &e.Status, &e.Stage,
		&e.Message, &e.RowCount, &e.SQLUsed,
	); err != nil {
		return QueryLogEntry{}, fmt.Errorf("scan query log entry: %w", err)
	}
	return e, nil
}
