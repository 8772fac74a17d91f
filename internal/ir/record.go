package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Record is an ordered mapping from field name to Value.
//
// Field order is insertion order and only matters for output; lookups are by
// name. Records from loosely schematized sources may lack fields other records
// in the same table carry. Get returns Null for those.
type Record struct {
	keys []string
	vals map[string]Value
}

// Field is a name/value pair for Record construction.
type Field struct {
	Name  string
	Value Value
}

// F is a shorthand for Field.
// Example: NewRecord(F("material_name", String("bolt")), F("qty", Number(5)))
func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// NewRecord creates a Record with fields in the given order.
// A repeated name keeps its first position and its last value.
func NewRecord(fields ...Field) Record {
	r := Record{
		keys: make([]string, 0, len(fields)),
		vals: make(map[string]Value, len(fields)),
	}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// RecordFromMap builds a Record from a decoded map. Map iteration order is
// random, so keys are added in sorted order.
func RecordFromMap(m map[string]any) (Record, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	r := NewRecord()
	for _, k := range keys {
		v, err := FromGo(m[k])
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", k, err)
		}
		r.Set(k, v)
	}
	return r, nil
}

// Set assigns a field, appending the name if it is new.
func (r *Record) Set(name string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if v == nil {
		v = Null{}
	}
	if _, exists := r.vals[name]; !exists {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Get returns the named field, or Null when the record lacks it.
func (r Record) Get(name string) Value {
	if v, ok := r.vals[name]; ok {
		return v
	}
	return Null{}
}

// Lookup returns the named field and whether the record has it.
func (r Record) Lookup(name string) (Value, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Has reports whether the record carries the named field.
func (r Record) Has(name string) bool {
	_, ok := r.vals[name]
	return ok
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	c := Record{
		keys: slices.Clone(r.keys),
		vals: make(map[string]Value, len(r.vals)),
	}
	for k, v := range r.vals {
		c.vals[k] = v
	}
	return c
}

// Equal reports whether both records have the same fields in the same order
// with equal values. Dates compare by instant.
func (r Record) Equal(other Record) bool {
	if !slices.Equal(r.keys, other.keys) {
		return false
	}
	for _, k := range r.keys {
		if !ValuesEqual(r.vals[k], other.vals[k]) {
			return false
		}
	}
	return true
}

// ValuesEqual reports strict equality: same kind and same value.
// No coercion is applied; use the evaluator for SQL comparison semantics.
func ValuesEqual(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if da, ok := a.(Date); ok {
		return da.Time().Equal(b.(Date).Time())
	}
	return a == b
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
// Numbers decode through json.Number so large integers keep their precision
// until converted to Number.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	*r = NewRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string, got %T", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record key %q: %w", key, err)
		}
		val, err := FromGo(raw)
		if err != nil {
			return fmt.Errorf("record key %q: %w", key, err)
		}
		r.Set(key, val)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
