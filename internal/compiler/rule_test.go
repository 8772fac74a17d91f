package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qassist/internal/ir"
)

func TestCompileRule(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rules: "供应商库存": {
			trigger_words: ["供应商", " 库存 ", ""]
			category:      "inventory"
			priority:      10
			template:      "SELECT * FROM inventory WHERE supplier = ?"
			description:   "stock by supplier"
		}
	`)
	require.NoError(t, v.Err())

	rule, err := CompileRule(v.LookupPath(cue.ParsePath(`rules."供应商库存"`)))
	require.NoError(t, err)

	assert.Equal(t, "供应商库存", rule.IntentName)
	assert.Equal(t, []string{"供应商", "库存"}, rule.TriggerWords)
	assert.Equal(t, "inventory", rule.Category)
	assert.Equal(t, int32(10), rule.Priority)
	assert.Equal(t, ir.StatusActive, rule.Status)
	assert.Equal(t, "stock by supplier", rule.Description)
	assert.Len(t, rule.ID, 64)

	again, err := CompileRule(v.LookupPath(cue.ParsePath(`rules."供应商库存"`)))
	require.NoError(t, err)
	assert.Equal(t, rule.ID, again.ID, "rule IDs are content hashes")
}

func TestCompileRule_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing template",
			src:   `rules: r: { trigger_words: ["a"] }`,
			field: "template",
		},
		{
			name:  "bad status",
			src:   `rules: r: { trigger_words: ["a"], template: "SELECT * FROM t", status: "paused" }`,
			field: "status",
		},
		{
			name:  "priority not an int",
			src:   `rules: r: { trigger_words: ["a"], template: "SELECT * FROM t", priority: "high" }`,
			field: "cue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileRule(v.LookupPath(cue.ParsePath("rules.r")))
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSchema(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		schema: inventory: {
			fields: ["material_name", "qty"]
			aliases: { "物料名称": "material_name", batch: "batch_no" }
		}
	`)
	require.NoError(t, v.Err())

	ts, err := CompileSchema(v.LookupPath(cue.ParsePath("schema.inventory")))
	require.NoError(t, err)
	assert.Equal(t, "inventory", ts.Table)
	assert.Equal(t, []string{"material_name", "qty"}, ts.Fields)
	assert.Equal(t, map[string]string{"物料名称": "material_name", "batch": "batch_no"}, ts.Aliases)
}
