package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
)

// CompileRule parses a CUE value into a Rule. The intent name is the
// value's label, e.g. rules.stock_by_supplier or rules."供应商库存".
//
//	rules: stock_by_supplier: {
//		trigger_words: ["供应商", "库存"]
//		category:      "inventory"
//		priority:      10
//		status:        "active"
//		template:      "SELECT * FROM inventory WHERE supplier = ?"
//	}
//
// The rule ID is its content hash.
func CompileRule(v cue.Value) (*ir.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rule := &ir.Rule{IntentName: labelOf(v)}

	words, err := stringList(v, "trigger_words")
	if err != nil {
		return nil, err
	}
	rule.TriggerWords = words

	if rule.Category, err = optionalString(v, "category"); err != nil {
		return nil, err
	}
	if rule.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}

	templateVal := v.LookupPath(cue.ParsePath("template"))
	if !templateVal.Exists() {
		return nil, &CompileError{
			Field:   "template",
			Message: "template is required",
			Pos:     v.Pos(),
		}
	}
	if rule.Template, err = templateVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	if p := v.LookupPath(cue.ParsePath("priority")); p.Exists() {
		n, err := p.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		rule.Priority = int32(n)
	}

	status, err := optionalString(v, "status")
	if err != nil {
		return nil, err
	}
	if rule.Status, err = ir.ParseStatus(status); err != nil {
		return nil, &CompileError{Field: "status", Message: err.Error(), Pos: v.Pos()}
	}

	id, err := ir.RuleID(*rule)
	if err != nil {
		return nil, fmt.Errorf("hash rule %s: %w", rule.IntentName, err)
	}
	rule.ID = id
	return rule, nil
}

// CompileSchema parses one table entry of the schema block:
//
//	schema: inventory: {
//		fields: ["material_name", "qty"]
//		aliases: { "物料名称": "material_name" }
//	}
func CompileSchema(v cue.Value) (schema.TableSchema, error) {
	ts := schema.TableSchema{Table: labelOf(v)}
	if err := v.Err(); err != nil {
		return ts, formatCUEError(err)
	}

	fields, err := stringList(v, "fields")
	if err != nil {
		return ts, err
	}
	ts.Fields = fields

	aliasVal := v.LookupPath(cue.ParsePath("aliases"))
	if !aliasVal.Exists() {
		return ts, nil
	}
	iter, err := aliasVal.Fields()
	if err != nil {
		return ts, formatCUEError(err)
	}
	ts.Aliases = make(map[string]string)
	for iter.Next() {
		phys, err := iter.Value().String()
		if err != nil {
			return ts, formatCUEError(err)
		}
		ts.Aliases[selectorName(iter.Selector())] = phys
	}
	return ts, nil
}

// labelOf returns the unquoted last path element of v.
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return selectorName(sels[len(sels)-1])
}

func selectorName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// CompileError reports a malformed CUE definition, with its source position
// when CUE provides one.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
