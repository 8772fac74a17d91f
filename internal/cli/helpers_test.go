package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/harness"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/store"
)

const inventoryRulesCUE = `package rules

schema: inventory: {
	fields: ["material_name", "status", "qty", "supplier", "batch_no"]
	aliases: {"物料名称": "material_name"}
}

rules: risk_stock: {
	trigger_words: ["风险", "库存"]
	category:      "inventory"
	priority:      1
	template:      "SELECT material_name, qty FROM inventory WHERE status = 'risk' ORDER BY qty DESC"
}

rules: batch_trace: {
	trigger_words: ["批次", "追溯"]
	category:      "high_priority"
	template:      "SELECT material_name, supplier FROM inventory WHERE batch_no = ?"
}
`

const inventoryRowsYAML = `- {material_name: 螺栓, status: risk, qty: 40, supplier: 华东, batch_no: BATCH-2024-001}
- {material_name: 垫片, status: normal, qty: 300, supplier: 华南, batch_no: BATCH-2024-002}
- {material_name: 电池, status: risk, qty: 12, supplier: 华东, batch_no: BATCH-2024-003}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newRulesDir writes the inventory rules to a fresh directory.
func newRulesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "rules.cue", inventoryRulesCUE)
	return dir
}

// newInventoryDB creates a database holding the inventory table.
func newInventoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qassist.db")
	records, err := harness.ParseRecords([]byte(inventoryRowsYAML))
	require.NoError(t, err)

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.ReplaceTable(context.Background(), ir.Table{Name: "inventory", Records: records}))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readLog(t *testing.T, dbPath string) []store.QueryLogEntry {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	entries, err := st.ReadQueryLog(context.Background(), store.LogFilter{})
	require.NoError(t, err)
	return entries
}
