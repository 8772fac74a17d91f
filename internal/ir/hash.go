package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRule    = "qassist/rule/v1"
	DomainCatalog = "qassist/catalog/v1"
	DomainResult  = "qassist/result/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleID computes a content-addressed ID for a rule defined without a
// storage key (rules loaded from CUE files). Two definitions with identical
// content share an ID regardless of file location.
func RuleID(r Rule) (string, error) {
	words := make([]any, len(r.TriggerWords))
	for i, w := range r.TriggerWords {
		words[i] = w
	}
	obj := map[string]any{
		"intent_name":   r.IntentName,
		"trigger_words": words,
		"category":      r.Category,
		"priority":      int64(r.Priority),
		"status":        string(r.Status),
		"template":      r.Template,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// CatalogHash identifies a catalog snapshot by the ordered IDs of its rules.
func CatalogHash(ruleIDs []string) string {
	canonical, err := MarshalCanonical(ruleIDs)
	if err != nil {
		// []string always marshals.
		panic(err)
	}
	return hashWithDomain(DomainCatalog, canonical)
}

// ResultHash fingerprints a result set. Row order is significant; field order
// within a row is not.
func ResultHash(rows []Record) (string, error) {
	canonical, err := MarshalCanonical(rows)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustRuleID is like RuleID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleID(r Rule) string {
	id, err := RuleID(r)
	if err != nil {
		panic(err)
	}
	return id
}
