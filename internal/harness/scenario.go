package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/intent"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
)

// Scenario is a self-contained query test: data, schema, rules, and the
// queries to run against them with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema maps table names to fields and aliases. When empty the schema
	// is derived from the fields present in Tables.
	Schema map[string]schema.TableSchema `yaml:"schema,omitempty"`

	// Tables holds the snapshot, keyed by table name.
	Tables map[string]Rows `yaml:"tables"`

	// Rules are compiled into the catalog in the order listed.
	Rules []RuleDef `yaml:"rules,omitempty"`

	// Matcher overrides intent.DefaultOptions.
	Matcher *MatcherDef `yaml:"matcher,omitempty"`

	// Rejected lists intent names expected to fail compilation.
	Rejected []string `yaml:"rejected,omitempty"`

	// Cases run in order against the same catalog and snapshot.
	Cases []Case `yaml:"cases"`
}

// RuleDef is a rule as written in a scenario, using the stored rule column
// names.
type RuleDef struct {
	IntentName   string   `yaml:"intent_name"`
	TriggerWords []string `yaml:"trigger_words"`
	Category     string   `yaml:"category,omitempty"`
	Priority     int32    `yaml:"priority,omitempty"`
	Status       string   `yaml:"status,omitempty"`
	ActionTarget string   `yaml:"action_target"`
	Description  string   `yaml:"description,omitempty"`
}

// MatcherDef overrides matcher options.
type MatcherDef struct {
	MinScore         *int   `yaml:"min_score,omitempty"`
	PriorityCategory string `yaml:"priority_category,omitempty"`
}

// Case is one query. Exactly one of Input (free text, goes through rule
// matching) or SQL (ad-hoc statement) is set.
type Case struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input,omitempty"`
	SQL    string `yaml:"sql,omitempty"`
	Expect Expect `yaml:"expect"`
}

// Expect describes the expected Outcome. Unset fields are not checked.
type Expect struct {
	// Status is required: matched, no_match or failed.
	Status string `yaml:"status"`

	Rule  string `yaml:"rule,omitempty"`
	Stage string `yaml:"stage,omitempty"`

	// Message is matched as a substring.
	Message string `yaml:"message,omitempty"`

	SQLUsed string   `yaml:"sql_used,omitempty"`
	Fields  []string `yaml:"fields,omitempty"`

	// Rows must match in order. Only the fields listed in each expected
	// row are compared.
	Rows Rows `yaml:"rows,omitempty"`

	RowCount *int `yaml:"row_count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var scenarios []*Scenario
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, r := range s.Rules {
		if r.IntentName == "" {
			return fmt.Errorf("rules[%d]: intent_name is required", i)
		}
	}

	for i, c := range s.Cases {
		if (c.Input == "") == (c.SQL == "") {
			return fmt.Errorf("cases[%d]: exactly one of input or sql is required", i)
		}
		switch engine.Status(c.Expect.Status) {
		case engine.StatusMatched, engine.StatusNoMatch, engine.StatusFailed:
		case "":
			return fmt.Errorf("cases[%d].expect: status is required", i)
		default:
			return fmt.Errorf("cases[%d].expect: unknown status %q", i, c.Expect.Status)
		}
		switch engine.Stage(c.Expect.Stage) {
		case "", engine.StageParse, engine.StageSchema, engine.StageExec:
		default:
			return fmt.Errorf("cases[%d].expect: unknown stage %q", i, c.Expect.Stage)
		}
	}
	return nil
}

// TableStore builds the snapshot. Tables are added in name order.
func (s *Scenario) TableStore() *ir.TableStore {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	tables := make([]ir.Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, ir.Table{Name: name, Records: s.Tables[name]})
	}
	return ir.NewTableStore(tables...)
}

// Resolver builds the schema resolver from Schema, or from the snapshot when
// Schema is empty.
func (s *Scenario) Resolver(tables *ir.TableStore) (*schema.Resolver, error) {
	if len(s.Schema) == 0 {
		return schema.NewResolver(schema.FromTables(tables)...)
	}
	names := make([]string, 0, len(s.Schema))
	for name := range s.Schema {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]schema.TableSchema, 0, len(names))
	for _, name := range names {
		ts := s.Schema[name]
		ts.Table = name
		schemas = append(schemas, ts)
	}
	return schema.NewResolver(schemas...)
}

// IRRules converts the rule definitions. Status strings are passed through
// unparsed so invalid ones surface as compile rejections.
func (s *Scenario) IRRules() []ir.Rule {
	rules := make([]ir.Rule, len(s.Rules))
	for i, r := range s.Rules {
		rules[i] = ir.Rule{
			IntentName:   r.IntentName,
			TriggerWords: slices.Clone(r.TriggerWords),
			Category:     r.Category,
			Priority:     r.Priority,
			Status:       ir.RuleStatus(strings.ToLower(r.Status)),
			Template:     r.ActionTarget,
			Description:  r.Description,
		}
		if rules[i].Status == "" {
			rules[i].Status = ir.StatusActive
		}
	}
	return rules
}

// MatchOptions applies Matcher over the defaults.
func (s *Scenario) MatchOptions() intent.Options {
	opts := intent.DefaultOptions()
	if s.Matcher == nil {
		return opts
	}
	if s.Matcher.MinScore != nil {
		opts.MinScore = *s.Matcher.MinScore
	}
	if s.Matcher.PriorityCategory != "" {
		opts.PriorityCategory = s.Matcher.PriorityCategory
	}
	return opts
}
