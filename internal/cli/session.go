package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/qassist/internal/catalog"
	"github.com/roach88/qassist/internal/config"
	"github.com/roach88/qassist/internal/engine"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
	"github.com/roach88/qassist/internal/store"
)

// session is everything a query command needs: a table snapshot, the
// schema, a catalog and, when --db is set, the store for the query log.
type session struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	tables     *ir.TableStore
	resolver   *schema.Resolver
	registry   *catalog.Registry
	rejections []catalog.Rejection
}

// openSession loads tables from the store, schema from --schema and the
// rules directory, and rules from --rules (or the store when --rules is
// unset). Callers must Close the session.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{cfg: cfg, logger: logger, tables: ir.NewTableStore()}

	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		s.store = st
		tables, err := st.LoadTables(ctx)
		if err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load tables", err)
		}
		s.tables = tables
	}

	var rules []ir.Rule
	var schemas []schema.TableSchema
	if cfg.SchemaFile != "" {
		var err error
		if schemas, err = appendSchemaFile(schemas, cfg.SchemaFile); err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
		}
	}

	switch {
	case cfg.RulesDir != "":
		set, errs := LoadRules(cfg.RulesDir, LoadModeCollectAll)
		if set == nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load rules", errors.Join(errs...))
		}
		for _, err := range errs {
			logger.Warn("rule file error", "error", err)
		}
		rules = set.Rules
		schemas = append(schemas, set.Schemas...)
	case s.store != nil:
		stored, err := s.store.LoadRules(ctx)
		if err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load rules", err)
		}
		rules = stored
	}

	res, err := buildResolver(schemas, s.tables)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "invalid schema", err)
	}
	s.resolver = res

	s.registry = catalog.NewRegistry(nil, logger)
	s.rejections = s.registry.Reload(rules, res)
	logger.Debug("session ready",
		"tables", s.tables.Len(),
		"rules", s.registry.Current().Len(),
		"rejected", len(s.rejections),
		"catalog", s.registry.Current().Hash(),
	)
	return s, nil
}

func appendSchemaFile(schemas []schema.TableSchema, path string) ([]schema.TableSchema, error) {
	fromFile, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return append(schemas, fromFile...), nil
}

// buildResolver merges declared schemas with the fields the snapshot
// actually has. Declared schemas win for the tables they name.
func buildResolver(declared []schema.TableSchema, tables *ir.TableStore) (*schema.Resolver, error) {
	seen := make(map[string]bool, len(declared))
	all := make([]schema.TableSchema, 0, len(declared)+tables.Len())
	for _, ts := range declared {
		if seen[ts.Table] {
			return nil, fmt.Errorf("table %q declared twice", ts.Table)
		}
		seen[ts.Table] = true
		all = append(all, ts)
	}
	for _, ts := range schema.FromTables(tables) {
		if !seen[ts.Table] {
			all = append(all, ts)
		}
	}
	return schema.NewResolver(all...)
}

func (s *session) catalog() *catalog.Catalog {
	return s.registry.Current()
}

func (s *session) engine() *engine.Engine {
	return engine.New(
		engine.WithResolver(s.resolver),
		engine.WithLogger(s.logger),
		engine.WithMatchOptions(s.cfg.MatchOptions()),
	)
}

// record appends an outcome to the query log. Without a store it is a no-op.
func (s *session) record(ctx context.Context, input string, out engine.Outcome) {
	if s.store == nil {
		return
	}
	err := s.store.AppendQueryLog(ctx, store.QueryLogEntry{
		ID:       out.ID,
		Input:    input,
		RuleName: out.RuleName,
		Status:   string(out.Status),
		Stage:    string(out.Stage),
		Message:  out.Message,
		RowCount: len(out.Rows),
		SQLUsed:  out.SQLUsed,
	})
	if err != nil {
		s.logger.Warn("query log write failed", "query_id", out.ID, "error", err)
	}
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close database", "error", err)
		}
		s.store = nil
	}
}

// commandSetup is shared by every command that opens a session.
func commandSetup(ctx context.Context, opts *RootOptions, cfg *config.Config, errOut io.Writer) (*session, error) {
	logger := newLogger(cfg, opts.Verbose, errOut)
	return openSession(ctx, cfg, logger)
}
