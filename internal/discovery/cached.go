package discovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

// Cache stores the last listing of each source.
type Cache interface {
	// Load returns the cached listing of source if it is younger than maxAge.
	// A maxAge of zero or less accepts an entry of any age. ok is false
	// when there is no usable entry.
	Load(ctx context.Context, source string, maxAge time.Duration) (candidates []model.Candidate, ok bool, err error)

	// Save replaces the cached listing of source.
	Save(ctx context.Context, source string, candidates []model.Candidate) error
}

// CachedSource serves a source's listing from a Cache while it is fresh
// and falls back to the cache, regardless of age, when a fetch fails.
type CachedSource struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps source with cache. Entries older than ttl are refetched.
func NewCachedSource(source Source, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Name implements Source.
func (s *CachedSource) Name() string { return s.source.Name() }

// Fetch implements Source.
func (s *CachedSource) Fetch(ctx context.Context) ([]model.Candidate, error) {
	cached, ok, err := s.cache.Load(ctx, s.Name(), s.ttl)
	if err != nil {
		s.logger.Warn("failed to read candidate cache", "source", s.Name(), "error", err)
	}
	if ok {
		s.logger.Debug("using cached candidates", "source", s.Name(), "count", len(cached))
		return cached, nil
	}

	fresh, fetchErr := s.source.Fetch(ctx)
	if fetchErr != nil {
		stale, ok, err := s.cache.Load(ctx, s.Name(), 0)
		if err == nil && ok {
			s.logger.Warn("fetch failed, using stale cache", "source", s.Name(), "error", fetchErr)
			return stale, nil
		}
		return nil, fetchErr
	}

	if err := s.cache.Save(ctx, s.Name(), fresh); err != nil {
		s.logger.Warn("failed to update candidate cache", "source", s.Name(), "error", err)
	}
	return fresh, nil
}
