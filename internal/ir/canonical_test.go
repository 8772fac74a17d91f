package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"integer number", Number(42), "42"},
		{"decimal number", Number(0.5), "0.5"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"int", 7, "7"},
		{"bool true", Bool(true), "true"},
		{"bool false", false, "false"},
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"date", NewDate(2024, 1, 9), `"2024-01-09"`},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortsRecordKeys(t *testing.T) {
	r := NewRecord(F("zebra", Number(1)), F("apple", String("a")))

	result, err := MarshalCanonical(r)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":"a","zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// A literal backslash followed by "u2028" stays escaped
	result, err = MarshalCanonical(String(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed U+00E9
	result, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Number(math.Inf(1)))
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, -1, compareKeysRFC8785("A", "a"))
	assert.Equal(t, 1, compareKeysRFC8785("aa", "a"))
	assert.Equal(t, 0, compareKeysRFC8785("x", "x"))
	// U+1F600 encodes as surrogate 0xD83D, which sorts before U+FB01 in UTF-16
	assert.Equal(t, -1, compareKeysRFC8785("\U0001F600", "\uFB01"))
}
