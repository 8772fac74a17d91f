package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/intent"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, rejected := catalog.Build([]ir.Rule{
		{
			IntentName:   "supplier_stock",
			TriggerWords: []string{"供应商", "库存"},
			Category:     "inventory",
			Status:       ir.StatusActive,
			Template:     "SELECT material_name, qty FROM inventory WHERE supplier = ? ORDER BY qty",
		},
		{
			IntentName:   "risk_stock",
			TriggerWords: []string{"风险", "测试"},
			Category:     "inventory",
			Status:       ir.StatusActive,
			Template:     "SELECT material_name FROM inventory WHERE status = 'risk' ORDER BY material_name",
		},
		{
			IntentName:   "missing_table",
			TriggerWords: []string{"归档"},
			Status:       ir.StatusActive,
			Template:     "SELECT * FROM archive",
		},
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Empty(t, rejected)
	return cat
}

func testEngine(opts ...Option) *Engine {
	base := []Option{
		WithIDGenerator(NewFixedGenerator("q-1", "q-2", "q-3", "q-4")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}

func TestQuery_Matched(t *testing.T) {
	out := testEngine().Query("查询'华东'供应商库存", inventory(), testCatalog(t))

	require.Equal(t, StatusMatched, out.Status, out.Message)
	assert.True(t, out.Matched())
	assert.Equal(t, "q-1", out.ID)
	assert.Equal(t, "supplier_stock", out.RuleName)
	assert.Equal(t, 10, out.Score)
	assert.Equal(t, "SELECT material_name, qty FROM inventory WHERE supplier = '华东' ORDER BY qty", out.SQLUsed)
	assert.Equal(t, []string{"material_name", "qty"}, out.Fields)
	assert.Equal(t, []ir.Value{ir.String("电池"), ir.String("螺栓")}, column(out.Rows, "material_name"))
}

func TestQuery_ScenarioC_MissingParameter(t *testing.T) {
	// 供应商+库存 outscores 风险, but the text carries no supplier value.
	out := testEngine().Query("查询供应商风险库存", inventory(), testCatalog(t))

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "supplier_stock", out.RuleName)
	assert.Equal(t, StageParse, out.Stage)
	assert.Contains(t, out.Message, "missing parameter")
	assert.Empty(t, out.Rows)
	assert.Empty(t, out.SQLUsed)
}

func TestQuery_NoMatch(t *testing.T) {
	e := testEngine()

	out := e.Query("今天天气怎么样", inventory(), testCatalog(t))
	assert.Equal(t, StatusNoMatch, out.Status)
	assert.Empty(t, out.RuleName)

	out = e.Query("风险", inventory(), nil)
	assert.Equal(t, StatusNoMatch, out.Status)
}

func TestQuery_ExecFailure(t *testing.T) {
	out := testEngine().Query("归档", inventory(), testCatalog(t))

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "missing_table", out.RuleName)
	assert.Equal(t, StageExec, out.Stage)
	assert.Contains(t, out.Message, "UNKNOWN_TABLE")
}

func TestQuery_InjectionThroughParameter(t *testing.T) {
	out := testEngine().Query(`供应商库存 "'; DROP TABLE inventory; --"`, inventory(), testCatalog(t))

	require.Equal(t, StatusMatched, out.Status, out.Message)
	assert.Empty(t, out.Rows)
	assert.Equal(t,
		"SELECT material_name, qty FROM inventory WHERE supplier = '''; DROP TABLE inventory; --' ORDER BY qty",
		out.SQLUsed)
}

func TestQuery_MinScore(t *testing.T) {
	e := testEngine(WithMatchOptions(intent.Options{MinScore: 10}))
	out := e.Query("查询供应商风险库存", inventory(), testCatalog(t))
	assert.Equal(t, StatusNoMatch, out.Status)
}

func TestQuery_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := testEngine(WithLogger(logger))

	e.Query("风险", inventory(), testCatalog(t))
	assert.Contains(t, buf.String(), "query_id=q-1")
	assert.Contains(t, buf.String(), "rule=risk_stock")
	assert.Contains(t, buf.String(), "status=matched")
	assert.Contains(t, buf.String(), "rows=2")
}

func TestQuery_Concurrent(t *testing.T) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	cat := testCatalog(t)
	tables := inventory()

	var wg sync.WaitGroup
	results := make([]Outcome, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Query("风险", tables, cat)
		}(i)
	}
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, StatusMatched, out.Status)
		assert.Len(t, out.Rows, 2)
		assert.Len(t, out.ID, 36)
	}
}

func TestPrepare(t *testing.T) {
	res, err := schema.NewResolver(schema.TableSchema{
		Table:   "inventory",
		Fields:  []string{"material_name", "qty", "status", "supplier"},
		Aliases: map[string]string{"物料名称": "material_name"},
	})
	require.NoError(t, err)
	e := testEngine(WithResolver(res))

	stmt, err := e.Prepare("SELECT 物料名称 FROM inventory")
	require.NoError(t, err)
	rows, err := ExecuteCompound(stmt, inventory())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ir.String("螺栓"), rows[0].Get("物料名称"))

	tests := []struct {
		name  string
		sql   string
		stage Stage
	}{
		{"parse", "SELECT FROM inventory", StageParse},
		{"static", "SELECT * FROM inventory WHERE COUNT(*) > 1", StageParse},
		{"placeholder", "SELECT * FROM inventory WHERE qty > ?", StageParse},
		{"unknown field", "SELECT colour FROM inventory", StageSchema},
		{"unknown table", "SELECT * FROM archive", StageSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Prepare(tt.sql)
			require.Error(t, err)
			assert.Equal(t, tt.stage, stageOf(err))
		})
	}
}

func TestRun(t *testing.T) {
	e := testEngine()

	out := e.Run("select material_name from inventory where qty > 20 order by qty desc", inventory())
	require.Equal(t, StatusMatched, out.Status, out.Message)
	assert.Empty(t, out.RuleName)
	assert.Equal(t, "SELECT material_name FROM inventory WHERE qty > 20 ORDER BY qty DESC", out.SQLUsed)
	assert.Equal(t, []ir.Value{ir.String("垫片"), ir.String("螺栓")}, column(out.Rows, "material_name"))

	out = e.Run("SELECT material_name FROM", inventory())
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, StageParse, out.Stage)
}

func TestOutcome_MarshalJSON(t *testing.T) {
	decode := func(t *testing.T, out Outcome) map[string]json.RawMessage {
		t.Helper()
		data, err := json.Marshal(out)
		require.NoError(t, err)
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	t.Run("matched with no rows", func(t *testing.T) {
		out := testEngine().Run("SELECT material_name FROM inventory WHERE qty > 100000", inventory())
		require.Equal(t, StatusMatched, out.Status, out.Message)
		m := decode(t, out)
		assert.JSONEq(t, `[]`, string(m["rows"]))
		assert.JSONEq(t, `["material_name"]`, string(m["fields"]))
	})

	t.Run("star with no rows", func(t *testing.T) {
		out := testEngine().Run("SELECT * FROM inventory WHERE qty > 100000", inventory())
		require.Equal(t, StatusMatched, out.Status, out.Message)
		m := decode(t, out)
		assert.JSONEq(t, `[]`, string(m["rows"]))
		assert.JSONEq(t, `[]`, string(m["fields"]))
	})

	t.Run("no match omits rows", func(t *testing.T) {
		out := testEngine().Query("今天天气", inventory(), testCatalog(t))
		require.Equal(t, StatusNoMatch, out.Status)
		m := decode(t, out)
		assert.NotContains(t, m, "rows")
		assert.NotContains(t, m, "fields")
		assert.JSONEq(t, `"no_match"`, string(m["status"]))
	})

	t.Run("round trip", func(t *testing.T) {
		out := testEngine().Run("SELECT material_name FROM inventory WHERE qty > 20 ORDER BY qty DESC", inventory())
		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"sql_used":"SELECT material_name FROM inventory WHERE qty > 20 ORDER BY qty DESC"`)
		var back Outcome
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, out.Fields, back.Fields)
		assert.Equal(t, column(out.Rows, "material_name"), column(back.Rows, "material_name"))
	})
}
