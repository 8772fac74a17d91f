package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := NewRecord(F("zeta", Number(1)), F("alpha", Number(2)))
	r.Set("mid", String("m"))
	r.Set("zeta", Number(9)) // update keeps position

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())
	assert.Equal(t, Number(9), r.Get("zeta"))
	assert.Equal(t, 3, r.Len())
}

func TestRecordMissingFieldIsNull(t *testing.T) {
	r := NewRecord(F("a", Number(1)))

	assert.Equal(t, Null{}, r.Get("missing"))
	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.False(t, r.Has("missing"))
}

func TestRecordZeroValueSet(t *testing.T) {
	var r Record
	r.Set("a", nil)

	assert.Equal(t, Null{}, r.Get("a"))
	assert.True(t, r.Has("a"))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	orig := NewRecord(F("a", Number(1)))
	clone := orig.Clone()
	clone.Set("a", Number(2))
	clone.Set("b", Number(3))

	assert.Equal(t, Number(1), orig.Get("a"))
	assert.False(t, orig.Has("b"))
}

func TestRecordJSONRoundTripPreservesOrder(t *testing.T) {
	input := `{"物料名称":"螺栓","qty":12,"ok":true,"note":null}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(input), &r))
	assert.Equal(t, []string{"物料名称", "qty", "ok", "note"}, r.Keys())
	assert.Equal(t, Number(12), r.Get("qty"))
	assert.Equal(t, Null{}, r.Get("note"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestRecordFromMapSortsKeys(t *testing.T) {
	r, err := RecordFromMap(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}

func TestRecordEqual(t *testing.T) {
	a := NewRecord(F("x", Number(1)), F("d", NewDate(2024, 1, 1)))
	b := NewRecord(F("x", Number(1)), F("d", NewDate(2024, 1, 1)))
	c := NewRecord(F("d", NewDate(2024, 1, 1)), F("x", Number(1)))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "field order is part of record equality")
}

func TestTableStoreLookup(t *testing.T) {
	store := NewTableStore(
		Table{Name: "inventory", Records: []Record{NewRecord(F("a", Number(1)))}},
		Table{Name: "suppliers"},
	)

	tbl, ok := store.Table("inventory")
	require.True(t, ok)
	assert.Len(t, tbl.Records, 1)

	_, ok = store.Table("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"inventory", "suppliers"}, store.Names())
	assert.Equal(t, 2, store.Len())
}

func TestTableFieldNamesFirstSeenOrder(t *testing.T) {
	tbl := Table{Records: []Record{
		NewRecord(F("a", Number(1)), F("b", Number(2))),
		NewRecord(F("c", Number(3)), F("a", Number(4))),
	}}
	assert.Equal(t, []string{"a", "b", "c"}, tbl.FieldNames())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Active")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s)

	s, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s)

	s, err = ParseStatus("inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, s)

	_, err = ParseStatus("paused")
	assert.Error(t, err)
}
