package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/store"
)

func storedRules(t *testing.T, dbPath string) []ir.Rule {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	rules, err := st.LoadRules(context.Background())
	require.NoError(t, err)
	return rules
}

func TestImportRules(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	cmd := NewImportCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, "rules", newRulesDir(t), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ Imported 2 rule(s)\n", out)

	rules := storedRules(t, db)
	require.Len(t, rules, 2)
	names := []string{rules[0].IntentName, rules[1].IntentName}
	assert.ElementsMatch(t, []string{"risk_stock", "batch_trace"}, names)
}

func TestImportRulesIsIdempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	dir := newRulesDir(t)

	for i := 0; i < 2; i++ {
		_, err := execute(t, NewImportCommand(&RootOptions{Format: "text"}), "rules", dir, "--db", db)
		require.NoError(t, err)
	}
	assert.Len(t, storedRules(t, db), 2)
}

func TestImportRulesRejected(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	dir := t.TempDir()
	writeFile(t, dir, "rules.cue", invalidRulesCUE)

	cmd := NewImportCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "rules", dir, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRules, resp.Error.Code)
	assert.Equal(t, "2 rule(s) rejected", resp.Error.Message)

	// All or nothing: the valid rule was not written either.
	assert.Empty(t, storedRules(t, db))
}

func TestImportRulesRequiresDB(t *testing.T) {
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "rules", newRulesDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestImportTable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	file := writeFile(t, t.TempDir(), "inventory.yaml", inventoryRowsYAML)

	cmd := NewImportCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "table", "inventory", file, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ImportResult{Kind: "table", Name: "inventory", Count: 3}, resp.Data)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	tables, err := st.LoadTables(context.Background())
	require.NoError(t, err)
	tbl, ok := tables.Table("inventory")
	require.True(t, ok)
	require.Len(t, tbl.Records, 3)
	assert.Equal(t, []string{"material_name", "status", "qty", "supplier", "batch_no"}, tbl.Records[0].Keys())
}

func TestImportTableJSONFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	file := writeFile(t, t.TempDir(), "orders.json",
		`[{"order_no": "A-1", "due": {"$date": "2024-05-01T00:00:00Z"}}]`)

	cmd := NewImportCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "table", "orders", file, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ Imported 1 row(s) into table orders\n", out)
}

func TestImportTableBadFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	file := writeFile(t, t.TempDir(), "bad.yaml", "name: not a list\n")

	cmd := NewImportCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "table", "inventory", file, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeBadInput)
}

func TestImportTableMissingFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "qassist.db")
	cmd := NewImportCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "table", "inventory", "/nonexistent/rows.yaml", "--db", db)
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeNotFound)
}
