package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/proxyfinder/internal/config"
	"github.com/nao1215/proxyfinder/internal/database"
	"github.com/nao1215/proxyfinder/internal/discovery"
	"github.com/nao1215/proxyfinder/internal/model"
	"github.com/nao1215/proxyfinder/internal/tor"
)

// discoveryStack owns everything needed to discover candidates: the
// registry of sources, the cache database and the optional Tor daemon.
type discoveryStack struct {
	registry *discovery.Registry
	cache    *database.CandidateCache
	tor      *tor.EmbeddedTor
	logger   *slog.Logger
}

// newDiscoveryStack builds the source registry described by cfg. Status
// messages about Tor startup are written to status.
func newDiscoveryStack(ctx context.Context, cfg *config.Config, status io.Writer, logger *slog.Logger) (*discoveryStack, error) {
	s := &discoveryStack{logger: logger}

	upstream, err := s.torUpstream(ctx, cfg, status)
	if err != nil {
		return nil, err
	}

	fetchOpts := []discovery.FetcherOption{discovery.WithFetchTimeout(cfg.FetchTimeout)}
	if upstream != "" {
		fetchOpts = append(fetchOpts, discovery.WithSOCKS5Upstream(upstream))
	}
	fetcher, err := discovery.NewFetcher(fetchOpts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	var remote []discovery.Source
	if !(len(cfg.SourceNames) == 1 && cfg.SourceNames[0] == noBuiltinSources) {
		builtin, err := discovery.BuiltinSources(cfg.SourceNames, fetcher)
		if err != nil {
			s.Close()
			return nil, err
		}
		remote = append(remote, builtin...)
	}
	for _, u := range cfg.SourceURLs {
		name := u.Name
		if name == "" {
			name = u.URL
		}
		protocol := u.Protocol
		if protocol == "" {
			protocol = model.ProtocolHTTP
		}
		remote = append(remote, discovery.NewURLListSource(name, u.URL, protocol, fetcher))
	}

	if cfg.UseCache {
		s.cache, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("candidate cache disabled", "error", err)
		}
	}

	sources := make([]discovery.Source, 0, len(remote)+len(cfg.SourceFiles))
	for _, src := range remote {
		if s.cache != nil {
			src = discovery.NewCachedSource(src, s.cache, cfg.CacheTTL, logger)
		}
		sources = append(sources, src)
	}
	for _, path := range cfg.SourceFiles {
		sources = append(sources, discovery.NewFileSource(path, model.ProtocolHTTP))
	}

	s.registry = discovery.NewRegistry(sources, discovery.WithRegistryLogger(logger))
	return s, nil
}

// torUpstream returns the SOCKS5 address downloads should use, or "" for a
// direct connection.
func (s *discoveryStack) torUpstream(ctx context.Context, cfg *config.Config, status io.Writer) (string, error) {
	if cfg.TorProxy != "" {
		if err := tor.ValidateProxyAddress(cfg.TorProxy); err != nil {
			return "", err
		}
		if st := tor.CheckSOCKS5(ctx, cfg.TorProxy, tor.DefaultCheckTimeout); st != tor.ProxyStatusOK {
			return "", fmt.Errorf("tor proxy check failed: %w (make sure Tor is running at %s)", st.Err(), cfg.TorProxy)
		}
		s.logger.Debug("using external Tor proxy", "address", cfg.TorProxy)
		return cfg.TorProxy, nil
	}

	if !cfg.UseTor {
		return "", nil
	}

	fmt.Fprintln(status, "Starting embedded Tor daemon, this may take a few minutes...")
	s.tor = tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
		tor.WithLogger(s.logger),
	)
	if err := s.tor.Start(ctx); err != nil {
		s.tor = nil
		return "", fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	return s.tor.Upstream()
}

// Close stops Tor and closes the cache.
func (s *discoveryStack) Close() {
	if s.tor != nil {
		if err := s.tor.Stop(); err != nil {
			s.logger.Error("failed to stop embedded Tor", "error", err)
		}
		s.tor = nil
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("failed to close candidate cache", "error", err)
		}
		s.cache = nil
	}
}
