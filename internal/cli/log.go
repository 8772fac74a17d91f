package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Rule   string
	Status string
	Limit  int
}

// LogResult is the log command payload.
type LogResult struct {
	Entries []store.QueryLogEntry `json:"entries"`
}

// RenderText implements textRenderer.
func (r LogResult) RenderText(w io.Writer) {
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "No queries logged.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tRULE\tROWS\tINPUT")
	for _, e := range r.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.ID, e.Status, e.RuleName, e.RowCount, e.Input)
	}
	tw.Flush()
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the query log",
		Long: `Print queries recorded by query, sql and batch, oldest first.

Examples:
  qassist log --db ./qassist.db
  qassist log --db ./qassist.db --rule supplier_stock --status failed --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only entries for this intent name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only entries with this status (matched|no_match|failed)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N entries (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	switch engine.Status(opts.Status) {
	case "", engine.StatusMatched, engine.StatusNoMatch, engine.StatusFailed:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be matched, no_match or failed", opts.Status))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be >= 0")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	entries, err := st.ReadQueryLog(cmd.Context(), store.LogFilter{
		RuleName: opts.Rule,
		Status:   opts.Status,
		Limit:    opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return formatter.Success(LogResult{Entries: entries})
}
