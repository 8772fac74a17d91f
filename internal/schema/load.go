package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qassist/internal/ir"
)

// document is the on-disk YAML shape:
//
//	tables:
//	  inventory:
//	    fields: [material_name, qty, status]
//	    aliases:
//	      物料名称: material_name
type document struct {
	Tables map[string]TableSchema `yaml:"tables"`
}

// ParseYAML decodes schema definitions from YAML.
func ParseYAML(data []byte) ([]TableSchema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	out := make([]TableSchema, 0, len(doc.Tables))
	for _, name := range sortedTableNames(doc.Tables) {
		s := doc.Tables[name]
		s.Table = name
		out = append(out, s)
	}
	return out, nil
}

// LoadFile reads schema definitions from a YAML file.
func LoadFile(path string) ([]TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseYAML(data)
}

// FromTables derives physical-only schemas from loaded snapshots, so rules
// can be validated against the fields the data actually has.
func FromTables(store *ir.TableStore) []TableSchema {
	out := make([]TableSchema, 0, store.Len())
	for _, name := range store.Names() {
		t, _ := store.Table(name)
		out = append(out, TableSchema{Table: name, Fields: t.FieldNames()})
	}
	return out
}

func sortedTableNames(m map[string]TableSchema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
