package model

import "errors"

// Validation errors returned when parsing candidates or checking a RunConfig.
var (
	// ErrUnknownProtocol is returned when a protocol name is not one of
	// http, https, socks4 or socks5.
	ErrUnknownProtocol = errors.New("unknown proxy protocol")

	// ErrInvalidHost is returned when a candidate has an empty host.
	ErrInvalidHost = errors.New("invalid proxy host")

	// ErrInvalidPort is returned when a candidate port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid proxy port: must be between 1 and 65535")

	// ErrEmptyTargetURL is returned when a run has no target URL.
	ErrEmptyTargetURL = errors.New("target URL must not be empty")

	// ErrInvalidMaxCandidates is returned when the candidate limit is negative.
	ErrInvalidMaxCandidates = errors.New("invalid max candidates: must be non-negative")

	// ErrInvalidWorkerCount is returned when fewer than one worker is requested.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be at least 1")

	// ErrInvalidConnectTimeout is returned when the connect timeout is not positive.
	ErrInvalidConnectTimeout = errors.New("invalid connect timeout: must be positive")
)
