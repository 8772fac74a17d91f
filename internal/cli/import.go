package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/harness"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/store"
)

// ImportResult is the import command payload.
type ImportResult struct {
	Kind  string `json:"kind"` // "rules" | "table"
	Name  string `json:"name,omitempty"`
	Count int    `json:"count"`
}

func (r ImportResult) String() string {
	if r.Kind == "table" {
		return fmt.Sprintf("✓ Imported %d row(s) into table %s", r.Count, r.Name)
	}
	return fmt.Sprintf("✓ Imported %d rule(s)", r.Count)
}

// NewImportCommand creates the import command with its rules and table
// subcommands.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load rules or table snapshots into the database",
	}
	cmd.AddCommand(newImportRulesCommand(rootOpts))
	cmd.AddCommand(newImportTableCommand(rootOpts))
	return cmd
}

func newImportRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <rules-dir>",
		Short: "Compile CUE rules and store them",
		Long: `Compile every rule in a directory of CUE files and upsert them into the
database by intent name. Nothing is written when any rule is rejected.

Example:
  qassist import rules ./rules --db ./qassist.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportRules(rootOpts, args[0], cmd)
		},
	}
	cmd.Flags().String("db", "", "path to SQLite database (required)")
	cmd.Flags().String("schema", "", "YAML schema file with field aliases")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newImportTableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table <name> <file>",
		Short: "Replace a table snapshot from a YAML or JSON file",
		Long: `Replace every row of a table with the records in a file. The file holds
a YAML or JSON array of objects; field order is kept. Dates may be written as
{"$date": "2024-01-02T00:00:00Z"}.

Example:
  qassist import table inventory ./inventory.yaml --db ./qassist.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportTable(rootOpts, args[0], args[1], cmd)
		},
	}
	cmd.Flags().String("db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runImportRules(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	set, loadErrors := LoadRules(rulesDir, LoadModeFailFast)
	if set == nil || len(loadErrors) > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, loadErrors[0].Error(), nil)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	tables, err := st.LoadTables(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	schemas := set.Schemas
	if cfg.SchemaFile != "" {
		if schemas, err = appendSchemaFile(schemas, cfg.SchemaFile); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
	}
	res, err := buildResolver(schemas, tables)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	// Compile against the stored snapshot so a rule that could never run is
	// not imported.
	_, rejections := catalog.Build(set.Rules, res, newLogger(cfg, opts.Verbose, cmd.ErrOrStderr()))
	if len(rejections) > 0 {
		var details []string
		for _, rj := range rejections {
			for _, e := range rj.Errors {
				details = append(details, e.Error())
			}
		}
		return formatter.Fail(ExitFailure, ErrCodeInvalidRules,
			fmt.Sprintf("%d rule(s) rejected", len(rejections)), details)
	}

	if err := st.UpsertRules(ctx, set.Rules); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return formatter.Success(ImportResult{Kind: "rules", Count: len(set.Rules)})
}

func runImportTable(opts *RootOptions, name, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	records, err := harness.ParseRecords(data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadInput, err.Error(), nil)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if err := st.ReplaceTable(cmd.Context(), ir.Table{Name: name, Records: records}); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	newLogger(cfg, opts.Verbose, cmd.ErrOrStderr()).Debug("table imported", "table", name, "rows", len(records))
	return formatter.Success(ImportResult{Kind: "table", Name: name, Count: len(records)})
}
