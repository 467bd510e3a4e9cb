package model

import (
	"strings"
	"time"
)

// RunConfig holds the settings for one validation run.
// It is fixed once a run has started.
type RunConfig struct {
	// TargetURL is fetched through every candidate proxy.
	TargetURL string

	// MaxCandidates limits how many candidates are checked. 0 means no limit.
	MaxCandidates int

	// WorkerCount is the number of concurrent workers. Must be at least 1.
	WorkerCount int

	// ConnectTimeout bounds connection establishment and, separately,
	// the wait for the first response byte.
	ConnectTimeout time.Duration
}

// Validate returns the first configuration problem found, or nil.
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.TargetURL) == "" {
		return ErrEmptyTargetURL
	}
	if c.MaxCandidates < 0 {
		return ErrInvalidMaxCandidates
	}
	if c.WorkerCount < 1 {
		return ErrInvalidWorkerCount
	}
	if c.ConnectTimeout <= 0 {
		return ErrInvalidConnectTimeout
	}
	return nil
}
