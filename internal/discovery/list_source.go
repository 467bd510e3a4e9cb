package discovery

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/proxyfinder/internal/model"
)

// URLListSource downloads a plain text proxy list.
type URLListSource struct {
	name     string
	url      string
	protocol model.Protocol
	fetcher  *Fetcher
}

// NewURLListSource creates a source for a remote "host:port" list whose
// entries default to protocol.
func NewURLListSource(name, url string, protocol model.Protocol, fetcher *Fetcher) *URLListSource {
	return &URLListSource{name: name, url: url, protocol: protocol, fetcher: fetcher}
}

// Name implements Source.
func (s *URLListSource) Name() string { return s.name }

// URL returns the list address.
func (s *URLListSource) URL() string { return s.url }

// Fetch implements Source.
func (s *URLListSource) Fetch(ctx context.Context) ([]model.Candidate, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return parseListBytes(body, s.protocol)
}

// FileSource reads a local proxy list.
type FileSource struct {
	path     string
	protocol model.Protocol
}

// NewFileSource creates a source for a local "host:port" list whose
// entries default to protocol.
func NewFileSource(path string, protocol model.Protocol) *FileSource {
	return &FileSource{path: path, protocol: protocol}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file:" + s.path }

// Fetch implements Source.
func (s *FileSource) Fetch(_ context.Context) ([]model.Candidate, error) {
	f, err := os.Open(s.path) //nolint:gosec // user-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy list: %w", err)
	}
	defer f.Close()

	return ParseList(f, s.protocol)
}
