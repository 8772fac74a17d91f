package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/qassist/internal/ir"
)

// marshalTriggerWords converts trigger words to a JSON array for storage.
// Uses ir.MarshalCanonical so the stored text is byte-stable.
func marshalTriggerWords(words []string) (string, error) {
	if words == nil {
		words = []string{}
	}
	data, err := ir.MarshalCanonical(words)
	if err != nil {
		return "", fmt.Errorf("marshal trigger words: %w", err)
	}
	return string(data), nil
}

// unmarshalTriggerWords parses stored trigger words. Older rows hold a
// comma-separated string instead of a JSON array; both are accepted.
// Blank words are dropped.
func unmarshalTriggerWords(data string) ([]string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return []string{}, nil
	}

	var raw []string
	if strings.HasPrefix(data, "[") {
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("unmarshal trigger words: %w", err)
		}
	} else {
		raw = strings.FieldsFunc(data, func(r rune) bool {
			return r == ',' || r == '\uff0c'
		})
	}

	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

// marshalRecord encodes a record as a JSON object in field order. Dates are
// written as {"$date": "<RFC 3339>"} so they load back as dates rather than
// strings; ir.FromGo recognizes the tag.
func marshalRecord(rec ir.Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range rec.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return "", fmt.Errorf("marshal record key %q: %w", k, err)
		}
		buf.Truncate(buf.Len() - 1) // Encoder adds a trailing newline
		buf.WriteByte(':')

		var v any = rec.Get(k)
		if d, ok := v.(ir.Date); ok {
			v = map[string]string{"$date": d.Time().Format(time.RFC3339Nano)}
		}
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("marshal record value for %q: %w", k, err)
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// unmarshalRecord parses a stored record, keeping field order.
func unmarshalRecord(data string) (ir.Record, error) {
	var rec ir.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return ir.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}
