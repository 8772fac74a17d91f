package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/ir"
)

// Snapshot renders a result as canonical JSON: object keys sorted, no
// whitespace. Empty outcome fields are omitted.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	cases := make([]any, len(result.Cases))
	for i, c := range result.Cases {
		m := map[string]any{
			"name":    c.Name,
			"outcome": outcomeMap(c.Outcome),
		}
		if len(c.Errors) > 0 {
			m["errors"] = c.Errors
		}
		cases[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"pass":          result.Pass,
		"rejected":      result.Rejected,
		"cases":         cases,
	})
}

// outcomeMap converts an Outcome to a map[string]any for canonical JSON.
// ir.MarshalCanonical only handles IR types and primitives.
func outcomeMap(o engine.Outcome) map[string]any {
	m := map[string]any{
		"id":     o.ID,
		"status": string(o.Status),
	}
	if o.RuleName != "" {
		m["rule_name"] = o.RuleName
	}
	if o.Score != 0 {
		m["score"] = o.Score
	}
	if o.SQLUsed != "" {
		m["sql_used"] = o.SQLUsed
	}
	if o.Status == engine.StatusMatched {
		rows := o.Rows
		if rows == nil {
			rows = []ir.Record{}
		}
		m["rows"] = rows
		fields := o.Fields
		if fields == nil {
			fields = []string{}
		}
		m["fields"] = fields
	}
	if o.Stage != "" {
		m["stage"] = string(o.Stage)
	}
	if o.Message != "" {
		m["message"] = o.Message
	}
	return m
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
