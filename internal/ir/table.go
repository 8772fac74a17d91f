package ir

import "slices"

// Table is a named, ordered sequence of records.
type Table struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// FieldNames returns every field name used by the table's records, in
// first-seen order.
func (t *Table) FieldNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range t.Records {
		for _, k := range rec.keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}

// TableStore is a read-only snapshot of named tables.
//
// A TableStore is never mutated after NewTableStore returns, so one snapshot
// can serve any number of concurrent queries. Loading new data produces a new
// TableStore.
type TableStore struct {
	tables map[string]*Table
	names  []string
}

// NewTableStore builds a snapshot from the given tables.
// A later table with the same name replaces an earlier one.
func NewTableStore(tables ...Table) *TableStore {
	s := &TableStore{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		t := Table{Name: t.Name, Records: slices.Clone(t.Records)}
		if _, exists := s.tables[t.Name]; !exists {
			s.names = append(s.names, t.Name)
		}
		s.tables[t.Name] = &t
	}
	return s
}

// Table returns the named table.
func (s *TableStore) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tables[name]
	return t, ok
}

// Names returns table names in the order they were added.
func (s *TableStore) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.names)
}

// Len returns the number of tables.
func (s *TableStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
