package finder

import "errors"

var (
	// ErrNoCandidates is returned when discovery produced no candidates.
	ErrNoCandidates = errors.New("no proxy candidates available")

	// ErrAlreadyRunning is returned by Start while workers from a previous
	// Start are still alive, including workers of a stopped run.
	ErrAlreadyRunning = errors.New("validation run already in progress")

	// ErrNoDiscoverer is returned by New when no candidate source is given.
	ErrNoDiscoverer = errors.New("no candidate discoverer configured")
)
