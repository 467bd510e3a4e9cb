package config

import (
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

// URLSource is an extra remote plain-text list of "ip:port" lines.
type URLSource struct {
	// Name identifies the source in logs and in the cache.
	Name string `yaml:"name"`

	// URL is downloaded with a GET request.
	URL string `yaml:"url"`

	// Protocol is applied to lines without a scheme. Defaults to http.
	Protocol model.Protocol `yaml:"protocol,omitempty"`
}

// RunDefaults are find command defaults. Zero values keep the built-in defaults.
type RunDefaults struct {
	TargetURL      string        `yaml:"url,omitempty"`
	MaxProxies     int           `yaml:"maxProxies,omitempty"`
	MaxThreads     int           `yaml:"maxThreads,omitempty"`
	ConnectTimeout time.Duration `yaml:"connTimeout,omitempty"`
	ShowAll        bool          `yaml:"showAll,omitempty"`
	Format         string        `yaml:"format,omitempty"`
}

// SourceSettings configures discovery.
type SourceSettings struct {
	// Builtin selects built-in sources by name. Empty enables all of them.
	Builtin []string `yaml:"builtin,omitempty"`

	// Files are local list files.
	Files []string `yaml:"files,omitempty"`

	// URLs are extra remote lists.
	URLs []URLSource `yaml:"urls,omitempty"`

	// CacheTTL overrides the cache TTL.
	CacheTTL time.Duration `yaml:"cacheTTL,omitempty"`

	// FetchTimeout overrides the per-source download timeout.
	FetchTimeout time.Duration `yaml:"fetchTimeout,omitempty"`
}

// File represents the structure of the .proxyfinder configuration file.
type File struct {
	Defaults RunDefaults    `yaml:"defaults,omitempty"`
	Sources  SourceSettings `yaml:"sources,omitempty"`
}

// Apply copies every value set in the file onto cfg. CLI flags are applied
// afterwards so they win.
func (cf *File) Apply(cfg *Config) error {
	d := cf.Defaults
	if d.TargetURL != "" {
		cfg.TargetURL = d.TargetURL
	}
	if d.MaxProxies != 0 {
		cfg.MaxCandidates = d.MaxProxies
	}
	if d.MaxThreads != 0 {
		cfg.Workers = d.MaxThreads
	}
	if d.ConnectTimeout != 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if d.ShowAll {
		cfg.ShowAll = true
	}
	if d.Format != "" {
		f, err := ParseFormat(d.Format)
		if err != nil {
			return err
		}
		cfg.Format = f
	}

	s := cf.Sources
	if len(s.Builtin) > 0 {
		cfg.SourceNames = append([]string(nil), s.Builtin...)
	}
	cfg.SourceFiles = append(cfg.SourceFiles, s.Files...)
	cfg.SourceURLs = append(cfg.SourceURLs, s.URLs...)
	if s.CacheTTL != 0 {
		cfg.CacheTTL = s.CacheTTL
	}
	if s.FetchTimeout != 0 {
		cfg.FetchTimeout = s.FetchTimeout
	}
	return nil
}
