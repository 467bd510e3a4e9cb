package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/proxyfinder/internal/model"
)

// Source fetches candidates from one proxy list.
type Source interface {
	// Name identifies the source in logs and in the candidate cache.
	Name() string

	// Fetch returns the candidates currently listed by the source.
	Fetch(ctx context.Context) ([]model.Candidate, error)
}

// Registry merges candidates from several sources.
type Registry struct {
	mu          sync.RWMutex
	sources     []Source
	logger      *slog.Logger
	concurrency int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used to report failing sources.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithFetchConcurrency limits how many sources are fetched at once.
func WithFetchConcurrency(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRegistry creates a Registry holding sources in the given order.
func NewRegistry(sources []Source, opts ...RegistryOption) *Registry {
	r := &Registry{
		sources:     append([]Source(nil), sources...),
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Register appends a source. Later sources win over earlier ones when
// both list the same host.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = append(r.sources, s)
}

// Sources returns the registered sources in order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Source(nil), r.sources...)
}

// Discover fetches every source concurrently and returns the merged,
// host-deduplicated candidates. A failing source is logged and skipped;
// Discover only fails when every source fails.
func (r *Registry) Discover(ctx context.Context) ([]model.Candidate, error) {
	sources := r.Sources()
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	lists := make([][]model.Candidate, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			candidates, err := src.Fetch(gctx)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				r.logger.Warn("discovery source failed", "source", src.Name(), "error", err)
				return nil
			}
			lists[i] = candidates
			r.logger.Debug("discovery source fetched", "source", src.Name(), "count", len(candidates))
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // source errors are collected in errs

	failed := 0
	var merged []model.Candidate
	for i := range sources {
		if errs[i] != nil {
			failed++
			continue
		}
		merged = append(merged, lists[i]...)
	}

	if failed == len(sources) {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	return model.DedupByHost(merged), nil
}
