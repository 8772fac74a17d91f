package catalog

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
)

// Registry publishes the current catalog to concurrent readers.
//
// Thread-safety model:
//   - Current(): safe from any goroutine, never blocks
//   - Reload(): safe from any goroutine; the last call to finish wins
type Registry struct {
	current atomic.Pointer[Catalog]
	version atomic.Int64
	logger  *slog.Logger
}

// NewRegistry creates a registry serving initial. A nil initial serves an
// empty catalog.
func NewRegistry(initial *Catalog, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if initial == nil {
		initial = Empty()
	}
	r := &Registry{logger: logger}
	r.current.Store(initial)
	return r
}

// Current returns the catalog snapshot in effect.
func (r *Registry) Current() *Catalog {
	return r.current.Load()
}

// Reload builds a catalog from rules and swaps it in. Readers holding the
// previous snapshot are unaffected. Returns the rejections of the build.
func (r *Registry) Reload(rules []ir.Rule, res *schema.Resolver) []Rejection {
	next, rejections := Build(rules, res, r.logger)
	r.current.Store(next)
	v := r.version.Add(1)
	r.logger.Info("catalog reloaded",
		"version", v,
		"rules", next.Len(),
		"rejected", len(rejections))
	return rejections
}

// Version counts completed reloads.
func (r *Registry) Version() int64 {
	return r.version.Load()
}
