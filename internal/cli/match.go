package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/qassist/internal/intent"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Params bool // also show extracted parameters
}

// RankedRule is one row of match output.
type RankedRule struct {
	Rule     string `json:"rule"`
	Score    int    `json:"score"`
	Category string `json:"category,omitempty"`
	Accepted bool   `json:"accepted"`
}

// MatchResult is the match command payload.
type MatchResult struct {
	Input    string       `json:"input"`
	MinScore int          `json:"min_score"`
	Ranked   []RankedRule `json:"ranked"`
	Params   []string     `json:"params,omitempty"`
}

// RenderText implements textRenderer.
func (r MatchResult) RenderText(w io.Writer) {
	if len(r.Ranked) == 0 {
		fmt.Fprintln(w, "No rule scored.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RULE\tSCORE\tCATEGORY\t")
		for _, rr := range r.Ranked {
			mark := ""
			if rr.Accepted {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s%s\t%d\t%s\t\n", rr.Rule, mark, rr.Score, rr.Category)
		}
		tw.Flush()
		fmt.Fprintf(w, "(* scores above %d)\n", r.MinScore)
	}
	if r.Params != nil {
		fmt.Fprintf(w, "Params: [%s]\n", strings.Join(r.Params, ", "))
	}
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <text>",
		Short: "Show how rules score against free text",
		Long: `Score every active rule against the text without running any query.
Rules are listed best first; the first accepted rule is the one query would
run.

Examples:
  qassist match --rules ./rules "查询华东供应商库存"
  qassist match --db ./qassist.db "批次 BATCH-2024-001 追溯" --params`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, strings.Join(args, " "), cmd)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&opts.Params, "params", false, "show parameters extracted from the text")
	return cmd
}

func runMatch(opts *MatchOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := commandSetup(cmd.Context(), opts.RootOptions, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	mopts := cfg.MatchOptions()
	result := MatchResult{
		Input:    text,
		MinScore: mopts.MinScore,
		Ranked:   []RankedRule{},
	}
	for _, m := range intent.Rank(text, sess.catalog().Rules(), mopts) {
		result.Ranked = append(result.Ranked, RankedRule{
			Rule:     m.Rule.IntentName,
			Score:    m.Score,
			Category: m.Rule.Category,
			Accepted: m.Score > mopts.MinScore,
		})
	}
	if opts.Params {
		result.Params = intent.ExtractParams(text)
		if result.Params == nil {
			result.Params = []string{}
		}
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(result)
}
