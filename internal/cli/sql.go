package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <statement>",
		Short: "Run an ad-hoc SELECT over the table snapshot",
		Long: `Parse, validate and run a SELECT statement directly, bypassing rule
matching. Logical field names are resolved through --schema and the schema
blocks of --rules. Placeholders are not allowed.

Examples:
  qassist sql --db ./qassist.db "SELECT material_name, qty FROM inventory ORDER BY qty DESC LIMIT 5"
  qassist sql --db ./qassist.db --schema ./schema.yaml "SELECT 物料名称 FROM inventory"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func runSQL(opts *RootOptions, statement string, cmd *cobra.Command) error {
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
	out := sess.engine().Run(statement, sess.tables)
	sess.record(ctx, statement, out)
	return reportOutcome(formatter, out)
}
