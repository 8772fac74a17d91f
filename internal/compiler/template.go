package compiler

import (
	"errors"
	"strings"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
	"github.com/roach88/qassist/internal/schema"
	"github.com/roach88/qassist/internal/sqlparse"
)

// Compile runs ValidateRule and, when that passes, CompileTemplate.
func Compile(rule ir.Rule, res *schema.Resolver) (*queryir.Compound, []ValidationError) {
	if errs := ValidateRule(rule); len(errs) > 0 {
		return nil, errs
	}
	stmt, err := CompileTemplate(rule, res)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			return nil, []ValidationError{ve}
		}
		return nil, []ValidationError{{Rule: rule.IntentName, Field: "template", Message: err.Error(), Code: ErrTemplateParse}}
	}
	return stmt, nil
}

// CompileTemplate parses a rule template, validates it, and resolves logical
// field names to physical ones. A nil resolver skips schema resolution.
//
// Errors are ValidationError values with codes E204 (parse), E205 (schema)
// or E206 (static validation).
func CompileTemplate(rule ir.Rule, res *schema.Resolver) (*queryir.Compound, error) {
	stmt, err := sqlparse.ParseCompound(rule.Template)
	if err != nil {
		return nil, ValidationError{
			Rule:    rule.IntentName,
			Field:   "template",
			Message: err.Error(),
			Code:    ErrTemplateParse,
		}
	}
	if result := queryir.ValidateCompound(stmt); !result.Valid {
		return nil, ValidationError{
			Rule:    rule.IntentName,
			Field:   "template",
			Message: strings.Join(result.Problems, "; "),
			Code:    ErrTemplateStatic,
		}
	}
	if res == nil {
		return stmt, nil
	}
	resolved, err := Resolve(stmt, res)
	if err != nil {
		return nil, ValidationError{
			Rule:    rule.IntentName,
			Field:   "template",
			Message: err.Error(),
			Code:    ErrTemplateSchema,
		}
	}
	return resolved, nil
}

// Resolve rewrites every field reference in c to its physical name. ORDER BY
// references to projection aliases are left alone so the engine can sort on
// the aliased expression. Returns a *schema.SchemaError for unknown tables
// or fields.
func Resolve(c *queryir.Compound, res *schema.Resolver) (*queryir.Compound, error) {
	out := &queryir.Compound{Selects: make([]*queryir.SelectStmt, len(c.Selects))}
	for i, s := range c.Selects {
		if !res.HasTable(s.Table) {
			return nil, &schema.SchemaError{Code: schema.CodeUnknownTable, Table: s.Table}
		}
		table := s.Table
		fieldFn := func(e queryir.Expr) (queryir.Expr, error) {
			ref, ok := e.(*queryir.FieldRef)
			if !ok {
				return e, nil
			}
			phys, err := res.Resolve(table, ref.Name)
			if err != nil {
				return nil, err
			}
			return queryir.Ref(phys), nil
		}
		aliases := make(map[string]bool, len(s.Projections))
		for _, p := range s.Projections {
			aliases[p.Alias] = true
		}
		orderFn := func(e queryir.Expr) (queryir.Expr, error) {
			if ref, ok := e.(*queryir.FieldRef); ok && aliases[ref.Name] {
				return queryir.Ref(ref.Name), nil
			}
			return queryir.Rewrite(e, fieldFn)
		}
		resolved, err := queryir.RewriteSelect(s, fieldFn, orderFn)
		if err != nil {
			return nil, err
		}
		out.Selects[i] = resolved
	}
	return out, nil
}
