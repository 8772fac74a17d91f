package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/testutil"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every case matched its expectation and the set of
	// rejected rules is exactly the one the scenario lists.
	Pass bool `json:"pass"`

	// Rejected holds the intent names the catalog refused, in rule order.
	Rejected []string `json:"rejected"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors collects every expectation mismatch.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult pairs a case with the engine's outcome.
type CaseResult struct {
	Name    string         `json:"name"`
	Outcome engine.Outcome `json:"outcome"`
	Errors  []string       `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Rejected: []string{},
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Pass = false
	r.Errors = append(r.Errors, err)
}

// Run executes a scenario against the real engine.
//
// Each run builds its own catalog and snapshot. Query IDs come from a
// sequence generator seeded with the scenario name, so outcomes are
// reproducible and can be compared against golden files.
//
// Run returns an error only when the scenario itself cannot be set up;
// expectation mismatches are reported in the Result.
func Run(s *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tables := s.TableStore()
	res, err := s.Resolver(tables)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	cat, rejections := catalog.Build(s.IRRules(), res, logger)

	result := NewResult()
	for _, rj := range rejections {
		result.Rejected = append(result.Rejected, rj.Rule.IntentName)
	}
	checkRejected(result, s.Rejected)

	eng := engine.New(
		engine.WithResolver(res),
		engine.WithLogger(logger),
		engine.WithIDGenerator(testutil.NewSequenceGenerator(s.Name)),
		engine.WithMatchOptions(s.MatchOptions()),
	)

	for i, c := range s.Cases {
		var out engine.Outcome
		if c.SQL != "" {
			out = eng.Run(c.SQL, tables)
		} else {
			out = eng.Query(c.Input, tables, cat)
		}

		cr := CaseResult{Name: caseName(i, c), Outcome: out}
		for _, msg := range checkExpect(c.Expect, out) {
			cr.Errors = append(cr.Errors, msg)
			result.AddError(fmt.Sprintf("%s: %s", cr.Name, msg))
		}
		result.Cases = append(result.Cases, cr)
	}

	return result, nil
}

func caseName(i int, c Case) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("case[%d]", i)
}

func checkRejected(result *Result, want []string) {
	got := slices.Clone(result.Rejected)
	exp := slices.Clone(want)
	slices.Sort(got)
	slices.Sort(exp)
	if !slices.Equal(got, exp) {
		result.AddError(fmt.Sprintf("rejected rules: expected %v, got %v", exp, got))
	}
}

// checkExpect compares an outcome against its expectation and returns one
// message per mismatch.
func checkExpect(exp Expect, out engine.Outcome) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if string(out.Status) != exp.Status {
		add("status: expected %s, got %s (%s)", exp.Status, out.Status, out.Message)
		return errs
	}
	if exp.Rule != "" && out.RuleName != exp.Rule {
		add("rule: expected %q, got %q", exp.Rule, out.RuleName)
	}
	if exp.Stage != "" && string(out.Stage) != exp.Stage {
		add("stage: expected %s, got %s", exp.Stage, out.Stage)
	}
	if exp.Message != "" && !strings.Contains(out.Message, exp.Message) {
		add("message: expected to contain %q, got %q", exp.Message, out.Message)
	}
	if exp.SQLUsed != "" && out.SQLUsed != exp.SQLUsed {
		add("sql_used: expected %q, got %q", exp.SQLUsed, out.SQLUsed)
	}
	if exp.Fields != nil && !slices.Equal(out.Fields, exp.Fields) {
		add("fields: expected %v, got %v", exp.Fields, out.Fields)
	}
	if exp.RowCount != nil && len(out.Rows) != *exp.RowCount {
		add("row_count: expected %d, got %d", *exp.RowCount, len(out.Rows))
	}
	if exp.Rows != nil {
		errs = append(errs, compareRows(exp.Rows, out.Rows)...)
	}
	return errs
}

// compareRows checks rows positionally. Each expected row constrains only
// the fields it names.
func compareRows(want, got []ir.Record) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("rows: expected %d, got %d", len(want), len(got))}
	}
	var errs []string
	for i, w := range want {
		for _, k := range w.Keys() {
			g, ok := got[i].Lookup(k)
			if !ok {
				errs = append(errs, fmt.Sprintf("rows[%d]: missing field %q", i, k))
				continue
			}
			if !sameValue(w.Get(k), g) {
				errs = append(errs, fmt.Sprintf("rows[%d].%s: expected %s, got %s",
					i, k, ir.ToString(w.Get(k)), ir.ToString(g)))
			}
		}
	}
	return errs
}

// sameValue tolerates YAML typing: a date written unquoted in a scenario
// may arrive as a string, and a quoted number as text.
func sameValue(want, got ir.Value) bool {
	if ir.ValuesEqual(want, got) {
		return true
	}
	if ir.IsNull(want) || ir.IsNull(got) {
		return false
	}
	return ir.ToString(want) == ir.ToString(got)
}
