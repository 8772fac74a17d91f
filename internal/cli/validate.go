package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/compiler"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/store"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Rules  int                        `json:"rules"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// RenderText implements textRenderer.
func (r ValidationResult) RenderText(w io.Writer) {
	if r.Valid {
		fmt.Fprintf(w, "✓ All rules valid (%d rule(s))\n", r.Rules)
		return
	}
	fmt.Fprintf(w, "✗ %d validation error(s):\n", len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Compile rules and report rejections",
		Long: `Compile every rule in a directory of CUE files the way a catalog load
would: rule fields are checked, templates are parsed and statically validated,
and field references are resolved against the schema.

The schema comes from the directory's schema blocks, --schema, and the tables
stored in --db.

Examples:
  qassist validate ./rules
  qassist validate ./rules --db ./qassist.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	cmd.Flags().String("db", "", "path to SQLite database whose tables extend the schema")
	cmd.Flags().String("schema", "", "YAML schema file with field aliases")
	return cmd
}

func runValidate(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	set, loadErrors := LoadRules(rulesDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if set == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", set.FileCount, rulesDir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			})
		}
	}

	schemas := set.Schemas
	if cfg.SchemaFile != "" {
		if schemas, err = appendSchemaFile(schemas, cfg.SchemaFile); err != nil {
			return outputValidateError(formatter, ErrCodeNotFound, err.Error())
		}
	}
	tables := ir.NewTableStore()
	if cfg.DB != "" {
		tables, err = loadStoredTables(cmd, cfg.DB)
		if err != nil {
			return outputValidateError(formatter, ErrCodeStore, err.Error())
		}
	}
	res, err := buildResolver(schemas, tables)
	if err != nil {
		return outputValidateError(formatter, compiler.ErrTemplateSchema, err.Error())
	}

	cat, rejections := catalog.Build(set.Rules, res, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, rj := range rejections {
		formatter.VerboseLog("Rejected rule: %s", rj.Rule.IntentName)
		validationErrors = append(validationErrors, rj.Errors...)
	}

	result := ValidationResult{
		Valid:  len(validationErrors) == 0,
		Rules:  cat.Len(),
		Errors: validationErrors,
	}
	if result.Valid {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("%d validation error(s)", len(validationErrors))
	if formatter.Format == "json" {
		return formatter.Fail(ExitFailure, ErrCodeInvalidRules, msg, result)
	}
	result.RenderText(formatter.Writer)
	return NewExitError(ExitFailure, msg)
}

func loadStoredTables(cmd *cobra.Command, path string) (*ir.TableStore, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadTables(cmd.Context())
}

// outputValidateError reports a load failure and returns exit code 2.
func outputValidateError(f *OutputFormatter, code, message string) error {
	return f.Fail(ExitCommandError, code, message, nil)
}
