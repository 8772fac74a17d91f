// Package schema maps logical field names used in rule templates to the
// physical field names present in table snapshots.
//
// Aliases let a template say 物料名称 while the snapshot column is
// material_name. Resolution is static: it happens when a rule is loaded,
// never per query.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrorCode classifies a schema failure.
type ErrorCode string

const (
	CodeUnknownTable ErrorCode = "UNKNOWN_TABLE"
	CodeUnknownField ErrorCode = "UNKNOWN_FIELD"
	CodeBadAlias     ErrorCode = "BAD_ALIAS"
)

// SchemaError reports a reference the resolver cannot satisfy.
type SchemaError struct {
	Code  ErrorCode
	Table string
	Field string
}

func (e *SchemaError) Error() string {
	switch e.Code {
	case CodeUnknownTable:
		return fmt.Sprintf("schema error [%s]: unknown table %q", e.Code, e.Table)
	case CodeBadAlias:
		return fmt.Sprintf("schema error [%s]: alias %q in table %q is empty or conflicts with a field", e.Code, e.Field, e.Table)
	default:
		return fmt.Sprintf("schema error [%s]: unknown field %q in table %q", e.Code, e.Field, e.Table)
	}
}

// IsSchemaError reports whether err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// TableSchema describes one table: its physical fields and the logical
// aliases that map onto them.
type TableSchema struct {
	Table   string            `yaml:"-" json:"table"`
	Fields  []string          `yaml:"fields" json:"fields"`
	Aliases map[string]string `yaml:"aliases" json:"aliases,omitempty"`
}

type table struct {
	physical map[string]bool
	aliases  map[string]string
	fields   []string
}

// Resolver answers logical-to-physical lookups. It is immutable once built
// and safe for concurrent use.
type Resolver struct {
	tables map[string]*table
}

// NewResolver builds a resolver. Schemas naming the same table are merged.
// Alias targets count as physical fields even when Fields omits them.
func NewResolver(schemas ...TableSchema) (*Resolver, error) {
	r := &Resolver{tables: make(map[string]*table)}
	for _, s := range schemas {
		t, ok := r.tables[s.Table]
		if !ok {
			t = &table{physical: map[string]bool{}, aliases: map[string]string{}}
			r.tables[s.Table] = t
		}
		for _, f := range s.Fields {
			t.addField(f)
		}
		for _, alias := range sortedKeys(s.Aliases) {
			phys := s.Aliases[alias]
			if alias == "" || phys == "" {
				return nil, &SchemaError{Code: CodeBadAlias, Table: s.Table, Field: alias}
			}
			t.addField(phys)
			t.aliases[alias] = phys
		}
	}
	// An alias that shadows a physical field would make references ambiguous.
	for name, t := range r.tables {
		for alias, phys := range t.aliases {
			if alias != phys && t.physical[alias] {
				return nil, &SchemaError{Code: CodeBadAlias, Table: name, Field: alias}
			}
		}
	}
	return r, nil
}

func (t *table) addField(f string) {
	if f == "" || t.physical[f] {
		return
	}
	t.physical[f] = true
	t.fields = append(t.fields, f)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns the physical name for a logical or physical field name.
func (r *Resolver) Resolve(tableName, name string) (string, error) {
	t, ok := r.tables[tableName]
	if !ok {
		return "", &SchemaError{Code: CodeUnknownTable, Table: tableName}
	}
	if phys, ok := t.aliases[name]; ok {
		return phys, nil
	}
	if t.physical[name] {
		return name, nil
	}
	return "", &SchemaError{Code: CodeUnknownField, Table: tableName, Field: name}
}

// HasTable reports whether the resolver knows tableName.
func (r *Resolver) HasTable(tableName string) bool {
	_, ok := r.tables[tableName]
	return ok
}

// Tables returns the known table names, sorted.
func (r *Resolver) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fields returns the physical fields of tableName in declaration order.
func (r *Resolver) Fields(tableName string) []string {
	t, ok := r.tables[tableName]
	if !ok {
		return nil
	}
	return slices.Clone(t.fields)
}

// Aliases returns a copy of the alias map of tableName.
func (r *Resolver) Aliases(tableName string) map[string]string {
	t, ok := r.tables[tableName]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(t.aliases))
	for k, v := range t.aliases {
		out[k] = v
	}
	return out
}
