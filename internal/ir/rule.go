package ir

import (
	"fmt"
	"strings"
)

// RuleStatus is the lifecycle state of an intent rule.
type RuleStatus string

const (
	StatusActive   RuleStatus = "active"
	StatusInactive RuleStatus = "inactive"
)

// ParseStatus parses a stored status string. Empty means active.
func ParseStatus(s string) (RuleStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return StatusActive, nil
	case "inactive":
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("invalid rule status %q: must be active or inactive", s)
	}
}

// Rule maps natural-language trigger words to a parameterized query template.
//
// Template is a restricted SELECT whose ? placeholders are bound to string
// literals extracted from the user's text. It is parsed once when the rule
// is loaded; a rule whose template does not parse never enters a catalog.
type Rule struct {
	ID           string     `json:"id"`
	IntentName   string     `json:"intent_name"`
	TriggerWords []string   `json:"trigger_words"`
	Category     string     `json:"category"`
	Priority     int32      `json:"priority"`
	Status       RuleStatus `json:"status"`
	Template     string     `json:"action_target"`
	Description  string     `json:"description,omitempty"`
}

// Active reports whether the rule takes part in matching.
func (r Rule) Active() bool {
	return r.Status == StatusActive || r.Status == ""
}
