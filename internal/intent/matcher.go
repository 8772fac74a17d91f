// Package intent selects the intent rule that best fits a free-text query
// and pulls template parameters out of that text.
//
// Scoring for an active rule against normalized input:
//
//	Σ runes(trigger) × 2   for each trigger word found as a substring
//	+50                    if the intent name itself appears in the input
//	+100                   if the whole input equals a trigger word
//	+20                    if the rule is in the priority category and
//	                       already scored on the text
//
// The best score strictly above MinScore wins. Ties go to the rule that
// comes first in the catalog, so matching is deterministic.
package intent

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/qassist/internal/ir"
)

// Score weights.
const (
	TriggerWeight   = 2
	IntentNameBonus = 50
	PriorityBonus   = 20
	ExactMatchBonus = 100
)

// DefaultPriorityCategory is the category that earns PriorityBonus.
const DefaultPriorityCategory = "high_priority"

// Options tunes matching.
type Options struct {
	// MinScore gates acceptance: a rule matches only when its score is
	// strictly greater.
	MinScore int

	// PriorityCategory names the category that earns PriorityBonus.
	PriorityCategory string
}

// DefaultOptions returns MinScore 1 and the "high_priority" category.
func DefaultOptions() Options {
	return Options{MinScore: 1, PriorityCategory: DefaultPriorityCategory}
}

// Match is a scored rule.
type Match struct {
	Rule  ir.Rule
	Index int // position in the catalog slice
	Score int
}

// Normalize prepares text for matching: NFC, Unicode case folding and
// trimmed surrounding space.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ScoreRule computes the score of rule against text. Inactive rules score 0.
func ScoreRule(text string, rule ir.Rule, opts Options) int {
	return scoreNormalized(Normalize(text), rule, opts)
}

func scoreNormalized(input string, rule ir.Rule, opts Options) int {
	if !rule.Active() || input == "" {
		return 0
	}
	score := 0
	for _, w := range rule.TriggerWords {
		word := Normalize(w)
		if word == "" {
			continue
		}
		if strings.Contains(input, word) {
			score += utf8.RuneCountInString(word) * TriggerWeight
		}
		if input == word {
			score += ExactMatchBonus
		}
	}
	if name := Normalize(rule.IntentName); name != "" && strings.Contains(input, name) {
		score += IntentNameBonus
	}
	if score > 0 && opts.PriorityCategory != "" && Normalize(rule.Category) == Normalize(opts.PriorityCategory) {
		score += PriorityBonus
	}
	return score
}

// MatchRule returns the best rule for text, or false when no rule scores
// above opts.MinScore.
func MatchRule(text string, rules []ir.Rule, opts Options) (Match, bool) {
	input := Normalize(text)
	best := Match{Index: -1}
	for i, r := range rules {
		s := scoreNormalized(input, r, opts)
		if s > opts.MinScore && s > best.Score {
			best = Match{Rule: r, Index: i, Score: s}
		}
	}
	if best.Index < 0 {
		return Match{}, false
	}
	return best, true
}

// Rank returns every rule with a positive score, best first, catalog order
// breaking ties. Rules at or below MinScore are included; callers compare
// against MinScore to see which would be accepted.
func Rank(text string, rules []ir.Rule, opts Options) []Match {
	input := Normalize(text)
	var out []Match
	for i, r := range rules {
		if s := scoreNormalized(input, r, opts); s > 0 {
			out = append(out, Match{Rule: r, Index: i, Score: s})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}
