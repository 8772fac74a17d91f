package harness

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qassist/internal/ir"
)

// Rows is a YAML sequence of records. Unlike decoding into
// []map[string]any it keeps each record's field order, which decides
// column order for SELECT *.
type Rows []ir.Record

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rows) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: rows must be a sequence", node.Line)
	}
	rows := make(Rows, 0, len(node.Content))
	for i, item := range node.Content {
		rec, err := decodeRecord(item)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, rec)
	}
	*r = rows
	return nil
}

func decodeRecord(node *yaml.Node) (ir.Record, error) {
	if node.Kind != yaml.MappingNode {
		return ir.Record{}, fmt.Errorf("line %d: record must be a mapping", node.Line)
	}
	rec := ir.NewRecord()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var raw any
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return ir.Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		v, err := ir.FromGo(raw)
		if err != nil {
			return ir.Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		rec.Set(key, v)
	}
	return rec, nil
}

// ParseRecords decodes a YAML or JSON array of objects into records,
// keeping field order. A date may be written as {"$date": "<RFC 3339>"}.
func ParseRecords(data []byte) ([]ir.Record, error) {
	var rows Rows
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	if rows == nil {
		rows = Rows{}
	}
	return rows, nil
}
