package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/ir"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Answer a free-text question",
		Long: `Match free text against the rule catalog, bind parameters extracted
from the text into the chosen rule's template, and run it over the table
snapshot stored in the database.

Rules come from --rules when given, otherwise from the database.

Exit codes:
  0 - Rule matched and executed, or no rule matched
  1 - A rule matched but its query failed
  2 - Command error (bad config, unreadable database, etc.)

Examples:
  qassist query --db ./qassist.db "查询华东供应商库存"
  qassist query --db ./qassist.db --rules ./rules "风险库存" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func runQuery(opts *RootOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sess, err := commandSetup(ctx, opts, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if sess.catalog().Len() == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNoRules, "no rules loaded: pass --rules or import rules into --db", nil)
	}
	formatter.VerboseLog("Catalog %s: %d rule(s), %d table(s)", sess.catalog().Hash(), sess.catalog().Len(), sess.tables.Len())

	out := sess.engine().Query(text, sess.tables, sess.catalog())
	sess.record(ctx, text, out)
	return reportOutcome(formatter, out)
}

// reportOutcome prints an outcome; a failed one exits 1.
func reportOutcome(f *OutputFormatter, out engine.Outcome) error {
	if out.Status == engine.StatusFailed {
		return f.Fail(ExitFailure, ErrCodeQueryFailed, out.Message, outcomeView(out))
	}
	return f.Success(outcomeView(out))
}

// outcomeView renders an Outcome as a table in text mode. It encodes to
// JSON exactly like engine.Outcome.
type outcomeView engine.Outcome

func (o outcomeView) String() string {
	var b strings.Builder
	o.RenderText(&b)
	return b.String()
}

func (o outcomeView) MarshalJSON() ([]byte, error) {
	return engine.Outcome(o).MarshalJSON()
}

// RenderText implements textRenderer.
func (o outcomeView) RenderText(w io.Writer) {
	switch o.Status {
	case engine.StatusNoMatch:
		fmt.Fprintln(w, "No rule matched.")
		return
	case engine.StatusFailed:
		if o.RuleName != "" {
			fmt.Fprintf(w, "Rule: %s\n", o.RuleName)
		}
		fmt.Fprintf(w, "Failed at %s: %s\n", o.Stage, o.Message)
		return
	}

	if o.RuleName != "" {
		fmt.Fprintf(w, "Rule: %s (score %d)\n", o.RuleName, o.Score)
	}
	fmt.Fprintf(w, "SQL:  %s\n", o.SQLUsed)
	renderRows(w, o.Fields, o.Rows)
}

func renderRows(w io.Writer, fields []string, rows []ir.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(fields, "\t"))
	for _, rec := range rows {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = ir.ToString(rec.Get(f))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "(%d row(s))\n", len(rows))
}
