package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/proxyfinder/internal/model"
)

// Default configuration values.
const (
	// DefaultWorkers is the number of proxies probed at the same time.
	DefaultWorkers = 20

	// DefaultConnectTimeout bounds connecting to a proxy and, separately,
	// waiting for the first response byte. Slightly above 3s so a proxy that
	// needs one TCP SYN retransmission still has a chance.
	DefaultConnectTimeout = 3050 * time.Millisecond

	// DefaultPollInterval is how often the find command refreshes progress
	// and drains results.
	DefaultPollInterval = 200 * time.Millisecond

	// DefaultCacheTTL is how long a source's listing is reused before it is
	// downloaded again.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultFetchTimeout bounds downloading one source listing.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "proxyfinder"
)

// Config holds all configuration options for proxyfinder.
// It is populated from the config file and CLI flags, in that order, and
// passed down explicitly rather than kept in global state.
type Config struct {
	// TargetURL is fetched through every candidate proxy.
	TargetURL string

	// MaxCandidates limits how many candidates are checked. 0 checks all.
	MaxCandidates int

	// Workers is the number of concurrent probes.
	Workers int

	// ConnectTimeout is the per-probe connect and read timeout.
	ConnectTimeout time.Duration

	// PollInterval is the progress refresh period of the find command.
	PollInterval time.Duration

	// ShowAll prints failed proxies together with their failure reason.
	ShowAll bool

	// Format selects the report format.
	Format Format

	// OutputFile receives the working proxies (text) or the full report.
	OutputFile string

	// SourceNames selects built-in discovery sources. Empty selects all.
	SourceNames []string

	// SourceFiles are local list files used as additional sources.
	SourceFiles []string

	// SourceURLs are extra remote plain-text lists.
	SourceURLs []URLSource

	// UseCache enables the per-source candidate cache.
	UseCache bool

	// CacheTTL is the maximum age of a cached listing.
	CacheTTL time.Duration

	// FetchTimeout bounds downloading one source listing.
	FetchTimeout time.Duration

	// UseTor downloads source listings through an embedded Tor daemon.
	// Probes never go through Tor.
	UseTor bool

	// TorProxy is an externally managed Tor SOCKS5 address ("host:port").
	// When set it is used instead of starting an embedded daemon.
	TorProxy string

	// TorStartupTimeout is the maximum time to wait for Tor to bootstrap.
	TorStartupTimeout time.Duration

	// DBDir is the directory holding the cache database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches log output from text to JSON lines.
	JSONLogs bool

	// ConfigFilePath is an explicit configuration file path.
	// If empty, .proxyfinder is searched in the current and home directories.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:           DefaultWorkers,
		ConnectTimeout:    DefaultConnectTimeout,
		PollInterval:      DefaultPollInterval,
		Format:            FormatText,
		UseCache:          true,
		CacheTTL:          DefaultCacheTTL,
		FetchTimeout:      DefaultFetchTimeout,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for proxyfinder.
// On Linux: ~/.local/share/proxyfinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for proxyfinder.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for proxyfinder.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// RunConfig returns the settings handed to the finder.
func (c *Config) RunConfig() model.RunConfig {
	return model.RunConfig{
		TargetURL:      c.TargetURL,
		MaxCandidates:  c.MaxCandidates,
		WorkerCount:    c.Workers,
		ConnectTimeout: c.ConnectTimeout,
	}
}

// Validate checks the settings needed by the find command and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return ErrNoTarget
	}
	if c.MaxCandidates < 0 {
		return ErrInvalidMaxProxies
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if !c.Format.Valid() {
		return ErrInvalidFormat
	}
	return c.ValidateSources()
}

// ValidateSources checks only the discovery settings. The list and cache
// commands use it since they have no target.
func (c *Config) ValidateSources() error {
	if c.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}
	for _, s := range c.SourceURLs {
		if s.URL == "" {
			return ErrInvalidSourceURL
		}
		if s.Protocol != "" && !s.Protocol.Valid() {
			return ErrInvalidSourceURL
		}
	}
	return nil
}
