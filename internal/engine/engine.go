package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/compiler"
	"github.com/roach88/qassist/internal/intent"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
	"github.com/roach88/qassist/internal/schema"
	"github.com/roach88/qassist/internal/sqlparse"
)

// Status is the overall result of a query.
type Status string

const (
	StatusMatched Status = "matched"
	StatusNoMatch Status = "no_match"
	StatusFailed  Status = "failed"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageParse  Stage = "parse"
	StageSchema Stage = "schema"
	StageExec   Stage = "exec"
)

// Outcome is the result of one query.
//
// Exactly one shape is populated per Status:
//   - matched: RuleName, Score, SQLUsed, Rows, Fields
//   - no_match: nothing beyond ID
//   - failed: Stage, Message (RuleName too when a rule was selected)
type Outcome struct {
	ID       string      `json:"id"`
	Status   Status      `json:"status"`
	RuleName string      `json:"rule_name,omitempty"`
	Score    int         `json:"score,omitempty"`
	SQLUsed  string      `json:"sql_used,omitempty"`
	Rows     []ir.Record `json:"rows,omitempty"`
	Fields   []string    `json:"fields,omitempty"`
	Stage    Stage       `json:"stage,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// MarshalJSON always carries rows and fields for a matched outcome, as
// empty arrays when the query selected nothing. Other statuses omit both.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	var v any = plain(o)
	if o.Status == StatusMatched {
		rows, fields := o.Rows, o.Fields
		if rows == nil {
			rows = []ir.Record{}
		}
		if fields == nil {
			fields = []string{}
		}
		v = struct {
			plain
			Rows   []ir.Record `json:"rows"`
			Fields []string    `json:"fields"`
		}{plain(o), rows, fields}
	}

	// SQL text keeps its < and > unescaped.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Matched reports whether the query selected a rule and executed it.
func (o Outcome) Matched() bool {
	return o.Status == StatusMatched
}

// Engine runs the query pipeline: match, bind, execute.
//
// Engine holds no per-query state and is safe for concurrent use. The
// catalog and table snapshot are passed per call so a reload never changes
// a query already in flight.
type Engine struct {
	resolver *schema.Resolver
	logger   *slog.Logger
	ids      IDGenerator
	match    intent.Options
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the schema used to resolve ad-hoc SQL in Prepare.
// Rule templates are resolved when the catalog is built.
func WithResolver(r *schema.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDGenerator sets the query ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMatchOptions tunes rule matching. Default: intent.DefaultOptions().
func WithMatchOptions(o intent.Options) Option {
	return func(e *Engine) {
		e.match = o
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
		match:  intent.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers free text from the catalog.
//
// The best-scoring rule is selected, parameters extracted from text are
// bound into its compiled template, and the result runs against tables.
// Failures are reported in the Outcome; Query never returns partial rows.
func (e *Engine) Query(text string, tables *ir.TableStore, cat *catalog.Catalog) (out Outcome) {
	out = Outcome{ID: e.ids.Generate()}
	defer func() { e.logOutcome(text, out) }()

	if cat == nil {
		out.Status = StatusNoMatch
		return out
	}
	m, ok := intent.MatchRule(text, cat.Rules(), e.match)
	if !ok {
		out.Status = StatusNoMatch
		return out
	}
	entry := cat.Entry(m.Index)
	out.RuleName = entry.Rule.IntentName
	out.Score = m.Score

	bound, err := queryir.Bind(entry.Stmt, intent.ExtractParams(text))
	if err != nil {
		return failed(out, StageParse, err)
	}
	out.SQLUsed = queryir.Format(bound)

	return e.execute(out, bound, tables)
}

// Prepare parses, validates and resolves ad-hoc SQL. Placeholders are
// rejected: ad-hoc statements carry their values inline.
//
// Errors are *sqlparse.ParseError, *queryir.InvalidError or
// *schema.SchemaError.
func (e *Engine) Prepare(sql string) (*queryir.Compound, error) {
	stmt, err := sqlparse.ParseCompound(sql)
	if err != nil {
		return nil, err
	}
	if err := queryir.ValidateCompound(stmt).Err(); err != nil {
		return nil, err
	}
	if stmt.ParamCount() > 0 {
		return nil, &queryir.BindError{Index: 0, Have: 0}
	}
	if e.resolver == nil {
		return stmt, nil
	}
	return compiler.Resolve(stmt, e.resolver)
}

// Run executes ad-hoc SQL against tables. The Outcome has no RuleName.
func (e *Engine) Run(sql string, tables *ir.TableStore) (out Outcome) {
	out = Outcome{ID: e.ids.Generate()}
	defer func() { e.logOutcome(sql, out) }()

	stmt, err := e.Prepare(sql)
	if err != nil {
		return failed(out, stageOf(err), err)
	}
	out.SQLUsed = queryir.Format(stmt)
	return e.execute(out, stmt, tables)
}

func (e *Engine) execute(out Outcome, stmt *queryir.Compound, tables *ir.TableStore) Outcome {
	if tables == nil {
		tables = ir.NewTableStore()
	}
	rows, err := ExecuteCompound(stmt, tables)
	if err != nil {
		return failed(out, StageExec, err)
	}
	out.Status = StatusMatched
	out.Rows = rows
	out.Fields = Fields(stmt, rows)
	return out
}

func failed(out Outcome, stage Stage, err error) Outcome {
	out.Status = StatusFailed
	out.Stage = stage
	out.Message = err.Error()
	out.SQLUsed = ""
	return out
}

// stageOf classifies a Prepare error.
func stageOf(err error) Stage {
	var se *schema.SchemaError
	if errors.As(err, &se) {
		return StageSchema
	}
	return StageParse
}

func (e *Engine) logOutcome(input string, out Outcome) {
	attrs := []any{
		"query_id", out.ID,
		"rule", out.RuleName,
		"status", out.Status,
		"rows", len(out.Rows),
	}
	if out.Status == StatusFailed {
		attrs = append(attrs, "stage", out.Stage, "error", out.Message)
	}
	e.logger.Debug("query", append(attrs, "input", input)...)
}
