package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/qassist/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertRule inserts a rule or updates the rule with the same intent name.
// An updated rule keeps its original load position. An empty ID is filled
// with ir.RuleID.
func (s *Store) UpsertRule(ctx context.Context, rule ir.Rule) error {
	return upsertRule(ctx, s.db, rule)
}

// UpsertRules writes rules in one transaction. Either every rule is written
// or none is.
func (s *Store) UpsertRules(ctx context.Context, rules []ir.Rule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert rules: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, r := range rules {
		if err := upsertRule(ctx, tx, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert rules: commit: %w", err)
	}
	return nil
}

func upsertRule(ctx context.Context, ex execer, rule ir.Rule) error {
	if rule.ID == "" {
		id, err := ir.RuleID(rule)
		if err != nil {
			return fmt.Errorf("upsert rule %q: %w", rule.IntentName, err)
		}
		rule.ID = id
	}
	status, err := ir.ParseStatus(string(rule.Status))
	if err != nil {
		return fmt.Errorf("upsert rule %q: %w", rule.IntentName, err)
	}
	words, err := marshalTriggerWords(rule.TriggerWords)
	if err != nil {
		return fmt.Errorf("upsert rule %q: %w", rule.IntentName, err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO intent_rules
		(id, intent_name, trigger_words, action_target, category, priority, status, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(intent_name) DO UPDATE SET
			id            = excluded.id,
			trigger_words = excluded.trigger_words,
			action_target = excluded.action_target,
			category      = excluded.category,
			priority      = excluded.priority,
			status        = excluded.status,
			description   = excluded.description
	`,
		rule.ID,
		rule.IntentName,
		words,
		rule.Template,
		rule.Category,
		rule.Priority,
		string(status),
		rule.Description,
	)
	if err != nil {
		return fmt.Errorf("upsert rule %q: %w", rule.IntentName, err)
	}
	return nil
}

// LoadRules returns every stored rule in load order.
//
// Returns an empty slice (not nil) if no rules exist.
func (s *Store) LoadRules(ctx context.Context) ([]ir.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, intent_name, trigger_words, action_target, category, priority, status, description
		FROM intent_rules
		ORDER BY seq ASC, intent_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []ir.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// DeleteRule removes a rule by intent name. Returns false if no rule had
// that name.
func (s *Store) DeleteRule(ctx context.Context, intentName string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM intent_rules WHERE intent_name = ?`, intentName)
	if err != nil {
		return false, fmt.Errorf("delete rule %q: %w", intentName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule %q: %w", intentName, err)
	}
	return n > 0, nil
}

func scanRule(rows *sql.Rows) (ir.Rule, error) {
	var (
		r      ir.Rule
		words  string
		status string
	)
	if err := rows.Scan(
		&r.ID, &r.IntentName, &words, &r.Template,
		&r.Category, &r.Priority, &status, &r.Description,
	); err != nil {
		return ir.Rule{}, fmt.Errorf("scan rule: %w", err)
	}

	var err error
	if r.TriggerWords, err = unmarshalTriggerWords(words); err != nil {
		return ir.Rule{}, fmt.Errorf("rule %q: %w", r.IntentName, err)
	}
	if r.Status, err = ir.ParseStatus(status); err != nil {
		return ir.Rule{}, fmt.Errorf("rule %q: %w", r.IntentName, err)
	}
	return r, nil
}
