package eval

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Like matches s against a LIKE pattern where % stands for any run of
// characters. Matching is case-insensitive under Unicode case folding.
// The _ wildcard is not supported and matches itself.
func Like(s, pattern string) bool {
	s, pattern = fold(s), fold(pattern)
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}

	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(s, first) {
		return false
	}
	s = s[len(first):]
	if len(s) < len(last) || !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	for _, mid := range parts[1 : len(parts)-1] {
		i := strings.Index(s, mid)
		if i < 0 {
			return false
		}
		s = s[i+len(mid):]
	}
	return true
}

// fold normalizes to NFC and applies Unicode case folding. A Caser holds
// state, so one is created per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
