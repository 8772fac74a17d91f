package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qassist/internal/engine"
)

// BatchItem is one line of a batch file with its outcome.
type BatchItem struct {
	Line    int            `json:"line"`
	Input   string         `json:"input"`
	Outcome engine.Outcome `json:"outcome"`
}

// BatchResult is the batch command payload.
type BatchResult struct {
	Items   []BatchItem `json:"items"`
	Matched int         `json:"matched"`
	NoMatch int         `json:"no_match"`
	Failed  int         `json:"failed"`
}

// RenderText implements textRenderer.
func (r BatchResult) RenderText(w io.Writer) {
	for _, it := range r.Items {
		o := it.Outcome
		switch o.Status {
		case engine.StatusMatched:
			fmt.Fprintf(w, "✓ %d: %s -> %s (%d row(s))\n", it.Line, it.Input, o.RuleName, len(o.Rows))
		case engine.StatusNoMatch:
			fmt.Fprintf(w, "- %d: %s -> no match\n", it.Line, it.Input)
		default:
			fmt.Fprintf(w, "✗ %d: %s -> %s failed at %s: %s\n", it.Line, it.Input, o.RuleName, o.Stage, o.Message)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d matched, %d no match, %d failed, %d total\n",
		r.Matched, r.NoMatch, r.Failed, len(r.Items))
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Answer one question per line, concurrently",
		Long: `Read free-text questions from a file, one per line, and answer them
concurrently against one catalog and table snapshot. Blank lines and lines
starting with # are skipped. Use - to read standard input.

Results are printed in input order and appended to the query log when --db
is set.

Exit codes:
  0 - No query failed
  1 - At least one query failed
  2 - Command error

Example:
  qassist batch --db ./qassist.db --workers 8 questions.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, args[0], cmd)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Int("workers", 4, "number of queries run concurrently")
	return cmd
}

type batchLine struct {
	line int
	text string
}

func runBatch(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	lines, err := readBatchFile(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadInput, err.Error(), nil)
	}

	ctx := cmd.Context()
	sess, err := commandSetup(ctx, opts, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()
	if sess.catalog().Len() == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNoRules, "no rules loaded: pass --rules or import rules into --db", nil)
	}

	// One catalog and snapshot for the whole batch; the engine is safe for
	// concurrent use.
	eng := sess.engine()
	cat := sess.catalog()
	items := make([]BatchItem, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Concurrency)
	for i, l := range lines {
		i, l := i, l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = BatchItem{Line: l.line, Input: l.text, Outcome: eng.Query(l.text, sess.tables, cat)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "batch interrupted", err)
	}

	// SQLite has one writer; log in input order after the fan-out.
	result := BatchResult{Items: items}
	for _, it := range items {
		sess.record(ctx, it.Input, it.Outcome)
		switch it.Outcome.Status {
		case engine.StatusMatched:
			result.Matched++
		case engine.StatusNoMatch:
			result.NoMatch++
		default:
			result.Failed++
		}
	}
	formatter.VerboseLog("Ran %d queries with %d worker(s)", len(items), cfg.Batch.Concurrency)

	if err := formatter.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed", result.Failed, len(items)))
	}
	return nil
}

func readBatchFile(path string, stdin io.Reader) ([]batchLine, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []batchLine
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, batchLine{line: n, text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
