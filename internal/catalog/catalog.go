// Package catalog holds the compiled, read-only set of intent rules that
// queries are matched against.
//
// A Catalog is built once from raw rules and never changes. Reloading
// produces a new Catalog which a Registry swaps in atomically, so an
// in-flight query keeps the snapshot it started with.
package catalog

import (
	"cmp"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/qassist/internal/compiler"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
	"github.com/roach88/qassist/internal/schema"
)

// Entry is a rule together with its compiled template.
type Entry struct {
	Rule ir.Rule
	Stmt *queryir.Compound
}

// Rejection records a rule that failed compilation.
type Rejection struct {
	Rule   ir.Rule
	Errors []compiler.ValidationError
}

// Catalog is an immutable, ordered set of compiled rules.
//
// INVARIANTS:
//   - entries are ordered by priority descending, then load order
//   - intent names are unique
//   - every Stmt passed static validation and schema resolution
type Catalog struct {
	entries []Entry
	rules   []ir.Rule
	byName  map[string]int
	hash    string
}

// Build compiles rules against res and returns the catalog of those that
// pass. Rejected rules are logged at WARN and returned, never dropped
// silently. A nil logger uses slog.Default().
func Build(rules []ir.Rule, res *schema.Resolver, logger *slog.Logger) (*Catalog, []Rejection) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		entries    []Entry
		rejections []Rejection
		seen       = make(map[string]bool, len(rules))
	)
	for _, r := range rules {
		if r.ID == "" {
			if id, err := ir.RuleID(r); err == nil {
				r.ID = id
			}
		}
		if seen[r.IntentName] && r.IntentName != "" {
			rejections = append(rejections, reject(logger, r, []compiler.ValidationError{{
				Rule:    r.IntentName,
				Field:   "intent_name",
				Message: "duplicate intent name",
				Code:    compiler.ErrRuleDuplicate,
			}}))
			continue
		}
		stmt, errs := compiler.Compile(r, res)
		if len(errs) > 0 {
			rejections = append(rejections, reject(logger, r, errs))
			continue
		}
		seen[r.IntentName] = true
		entries = append(entries, Entry{Rule: r, Stmt: stmt})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Rule.Priority, a.Rule.Priority)
	})

	c := &Catalog{
		entries: entries,
		rules:   make([]ir.Rule, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		c.rules[i] = e.Rule
		c.byName[e.Rule.IntentName] = i
		ids[i] = e.Rule.ID
	}
	c.hash = ir.CatalogHash(ids)

	logger.Debug("catalog built",
		"rules", len(entries),
		"rejected", len(rejections),
		"hash", c.hash)
	return c, rejections
}

func reject(logger *slog.Logger, r ir.Rule, errs []compiler.ValidationError) Rejection {
	for _, e := range errs {
		logger.Warn("rule rejected",
			"rule", r.IntentName,
			"code", e.Code,
			"error", e.Message)
	}
	return Rejection{Rule: r, Errors: errs}
}

// Empty returns a catalog with no rules.
func Empty() *Catalog {
	c, _ := Build(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c
}

// Rules returns the rules in match order. The slice is a copy.
func (c *Catalog) Rules() []ir.Rule {
	return slices.Clone(c.rules)
}

// Entry returns the entry at index i, as reported by intent matching over
// Rules().
func (c *Catalog) Entry(i int) Entry {
	return c.entries[i]
}

// Lookup finds an entry by intent name.
func (c *Catalog) Lookup(intentName string) (Entry, bool) {
	i, ok := c.byName[intentName]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Hash identifies the catalog by the ordered IDs of its rules.
func (c *Catalog) Hash() string {
	return c.hash
}
