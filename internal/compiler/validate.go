package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/qassist/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrRuleNameEmpty  = "E201" // intent name is required
	ErrRuleNoTriggers = "E202" // at least one trigger word required
	ErrRuleBadStatus  = "E203" // status must be active or inactive
	ErrTemplateParse  = "E204" // template does not parse
	ErrTemplateSchema = "E205" // template references unknown table or field
	ErrTemplateStatic = "E206" // template fails static validation
	ErrRuleDuplicate  = "E207" // another rule already uses this intent name
)

// ValidationError represents a rule that cannot enter a catalog.
type ValidationError struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] rule %s: %s: %s", e.Code, e.Rule, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateRule checks a rule's own fields. Returns all errors found (does
// not fail-fast). The template is checked separately by CompileTemplate.
func ValidateRule(rule ir.Rule) []ValidationError {
	var errs []ValidationError

	// E201: intent name is required
	if strings.TrimSpace(rule.IntentName) == "" {
		errs = append(errs, ValidationError{
			Rule:    rule.IntentName,
			Field:   "intent_name",
			Message: "intent name is required and must be non-empty",
			Code:    ErrRuleNameEmpty,
		})
	}

	// E202: at least one non-blank trigger word
	hasTrigger := false
	for _, w := range rule.TriggerWords {
		if strings.TrimSpace(w) != "" {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		errs = append(errs, ValidationError{
			Rule:    rule.IntentName,
			Field:   "trigger_words",
			Message: "at least one trigger word is required",
			Code:    ErrRuleNoTriggers,
		})
	}

	// E203: status
	if _, err := ir.ParseStatus(string(rule.Status)); err != nil {
		errs = append(errs, ValidationError{
			Rule:    rule.IntentName,
			Field:   "status",
			Message: err.Error(),
			Code:    ErrRuleBadStatus,
		})
	}

	return errs
}
