package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/ir"
)

type outcomeResponse struct {
	Status string         `json:"status"`
	Data   engine.Outcome `json:"data"`
	Error  *CLIError      `json:"error"`
}

func TestQueryMatched(t *testing.T) {
	db := newInventoryDB(t)
	cmd := NewQueryCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, "--db", db, "--rules", newRulesDir(t), "风险库存")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule: risk_stock (score 8)")
	assert.Contains(t, out, "SQL:  SELECT material_name, qty FROM inventory WHERE status = 'risk' ORDER BY qty DESC")
	assert.Contains(t, out, "螺栓")
	assert.Contains(t, out, "电池")
	assert.NotContains(t, out, "垫片")
	assert.Contains(t, out, "(2 row(s))")

	entries := readLog(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, "风险库存", entries[0].Input)
	assert.Equal(t, "risk_stock", entries[0].RuleName)
	assert.Equal(t, "matched", entries[0].Status)
	assert.Equal(t, 2, entries[0].RowCount)
}

func TestQueryJoinsArgs(t *testing.T) {
	cmd := NewQueryCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "--db", newInventoryDB(t), "--rules", newRulesDir(t), "追溯批次", "BATCH-2024-002")
	require.NoError(t, err)

	var resp outcomeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, engine.StatusMatched, resp.Data.Status)
	assert.Equal(t, "batch_trace", resp.Data.RuleName)
	assert.Equal(t, 28, resp.Data.Score)
	assert.Equal(t, "SELECT material_name, supplier FROM inventory WHERE batch_no = 'BATCH-2024-002'", resp.Data.SQLUsed)
	assert.Equal(t, []string{"material_name", "supplier"}, resp.Data.Fields)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "垫片", ir.ToString(resp.Data.Rows[0].Get("material_name")))
	assert.NotEmpty(t, resp.Data.ID)
}

func TestQueryNoMatch(t *testing.T) {
	cmd := NewQueryCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "--db", newInventoryDB(t), "--rules", newRulesDir(t), "今天天气")
	require.NoError(t, err)
	assert.Equal(t, "No rule matched.\n", out)
}

func TestQueryMinScore(t *testing.T) {
	// risk_stock scores 8; a threshold of 8 rejects it.
	cmd := NewQueryCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "--db", newInventoryDB(t), "--rules", newRulesDir(t), "--min-score", "8", "风险库存")
	require.NoError(t, err)
	assert.Equal(t, "No rule matched.\n", out)
}

func TestQueryFailedBind(t *testing.T) {
	db := newInventoryDB(t)
	cmd := NewQueryCommand(&RootOptions{Format: "json"})

	out, err := execute(t, cmd, "--db", db, "--rules", newRulesDir(t), "批次追溯")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeQueryFailed)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "missing parameter")

	entries := readLog(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, "parse", entries[0].Stage)
}

func TestQueryRulesFromStore(t *testing.T) {
	db := newInventoryDB(t)
	_, err := execute(t, NewImportCommand(&RootOptions{Format: "text"}), "rules", newRulesDir(t), "--db", db)
	require.NoError(t, err)

	cmd := NewQueryCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "--db", db, "风险库存")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule: risk_stock")
}

func TestQueryNoRules(t *testing.T) {
	cmd := NewQueryCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "--db", newInventoryDB(t), "风险库存")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoRules)
}

func TestQueryMissingArgs(t *testing.T) {
	cmd := NewQueryCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestOutcomeViewRenderText(t *testing.T) {
	failed := outcomeView{Status: engine.StatusFailed, RuleName: "r", Stage: engine.StageExec, Message: "boom"}
	assert.Equal(t, "Rule: r\nFailed at exec: boom\n", failed.String())

	rec := ir.NewRecord()
	rec.Set("n", ir.Number(3))
	matched := outcomeView{Status: engine.StatusMatched, SQLUsed: "SELECT n FROM t", Fields: []string{"n"}, Rows: []ir.Record{rec}}
	assert.Equal(t, "SQL:  SELECT n FROM t\nn\n3\n(1 row(s))\n", matched.String())
}
