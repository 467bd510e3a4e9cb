package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no target URL is given.
	ErrNoTarget = errors.New("no target specified: provide the URL to fetch through each proxy")

	// ErrInvalidMaxProxies is returned when the candidate limit is negative.
	ErrInvalidMaxProxies = errors.New("invalid max proxies: must be zero (no limit) or positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid max threads: must be positive")

	// ErrInvalidTimeout is returned when the connect timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid connection timeout: must be positive")

	// ErrInvalidPollInterval is returned when the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrInvalidCacheTTL is returned when the cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("invalid cache ttl: must be non-negative")

	// ErrInvalidFetchTimeout is returned when the source fetch timeout is not positive.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidSourceURL is returned when a configured URL source has no
	// URL or an unknown protocol.
	ErrInvalidSourceURL = errors.New("invalid source url entry")
)
