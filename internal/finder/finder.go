package finder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/proxyfinder/internal/model"
	"github.com/nao1215/proxyfinder/internal/probe"
	"github.com/nao1215/proxyfinder/internal/queue"
)

// Discoverer supplies the candidate list for a run.
type Discoverer interface {
	Discover(ctx context.Context) ([]model.Candidate, error)
}

// Progress is a snapshot of the current run.
type Progress struct {
	// Total is the number of candidates enqueued by the last Start.
	Total int

	// Dispatched is the number of candidates taken by workers so far.
	Dispatched int

	// Checked is the number of outcomes produced by the current run.
	Checked int

	// Left is the number of candidates still queued.
	Left int

	// ActiveWorkers is the number of workers still alive.
	ActiveWorkers int

	// ETA is the estimated time remaining, formatted HH:MM:SS.
	ETA string
}

// Finder coordinates a validation run: it seeds the work queue, spawns
// workers and collects their outcomes.
type Finder struct {
	cfg    model.RunConfig
	source Discoverer
	prober Prober
	logger *slog.Logger

	// discoverMu serializes candidate discovery so the source is queried once.
	discoverMu       sync.Mutex
	candidates       []model.Candidate
	candidatesLoaded bool

	// results lives for the lifetime of the Finder.
	results *queue.ResultChannel

	mu          sync.Mutex
	work        *queue.WorkQueue
	workers     []*Worker
	accumulated []model.ProbeOutcome
	runs        []chan struct{}
	total       int
	checkedBase int
	startedAt   time.Time
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger used by the Finder and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithProber replaces the default HTTP prober.
func WithProber(p Prober) Option {
	return func(f *Finder) {
		f.prober = p
	}
}

// New creates a Finder. It validates cfg before anything else so that no
// worker is ever spawned with an invalid configuration.
func New(cfg model.RunConfig, source Discoverer, opts ...Option) (*Finder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	if source == nil {
		return nil, ErrNoDiscoverer
	}

	f := &Finder{
		cfg:     cfg,
		source:  source,
		results: queue.NewResultChannel(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.prober == nil {
		f.prober = probe.NewHTTPProber(probe.WithLogger(f.logger))
	}

	return f, nil
}

// Candidates returns the deduplicated, truncated candidate list.
// The source is queried on the first successful call only; later calls
// return the cached list.
func (f *Finder) Candidates(ctx context.Context) ([]model.Candidate, error) {
	f.discoverMu.Lock()
	defer f.discoverMu.Unlock()

	if f.candidatesLoaded {
		return cloneCandidates(f.candidates), nil
	}

	found, err := f.source.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover candidates: %w", err)
	}

	found = model.DedupByHost(found)
	if f.cfg.MaxCandidates > 0 && len(found) > f.cfg.MaxCandidates {
		found = found[:f.cfg.MaxCandidates]
	}
	if len(found) == 0 {
		return nil, ErrNoCandidates
	}

	f.candidates = found
	f.candidatesLoaded = true

	f.logger.Debug("candidates loaded", "count", len(found))

	return cloneCandidates(found), nil
}

// Start enqueues the candidates and spawns the workers. It returns as soon
// as the workers are launched. Workers exit when the queue is empty, when
// Stop is called or when ctx is done.
//
// Start returns ErrAlreadyRunning while workers of an earlier run, stopped
// or not, are still probing. Call Wait first to restart after Stop.
// Outcomes of earlier runs that were never drained are moved into the
// accumulated results, so DrainLastResults only returns outcomes of the
// new run.
func (f *Finder) Start(ctx context.Context) error {
	if !f.IsFinished() {
		return ErrAlreadyRunning
	}

	candidates, err := f.Candidates(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.activeLocked() > 0 || f.pendingRunsLocked() > 0 {
		return ErrAlreadyRunning
	}
	f.runs = nil
	f.accumulated = append(f.accumulated, f.results.DrainAll()...)

	work := queue.NewWorkQueue()
	work.Push(candidates...)
	work.Close()

	f.work = work
	f.total = len(candidates)
	f.checkedBase = len(f.accumulated)
	f.startedAt = time.Now()
	f.workers = make([]*Worker, 0, f.cfg.WorkerCount)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < f.cfg.WorkerCount; i++ {
		w := newWorker(i+1, work, f.results, f.prober, f.cfg, f.logger)
		f.workers = append(f.workers, w)
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}

	done := make(chan struct{})
	f.runs = append(f.runs, done)
	go func() {
		_ = g.Wait() //nolint:errcheck // workers never return errors
		close(done)
	}()

	f.logger.Info("validation run started",
		"candidates", len(candidates),
		"workers", f.cfg.WorkerCount,
		"target", f.cfg.TargetURL,
		"timeout", f.cfg.ConnectTimeout,
	)

	return nil
}

// Stop ends the current run. Every worker is told to exit after its
// current probe, queued candidates are discarded and outcomes not yet
// drained are moved into the accumulated results. Outcomes from probes
// that were in flight arrive later and can be collected with
// DrainLastResults. Stop is a no-op when no run was started and is safe to
// call repeatedly.
func (f *Finder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.work == nil {
		return
	}

	for _, w := range f.workers {
		w.Stop()
	}
	dropped := f.work.Clear()
	pending := f.results.DrainAll()
	f.accumulated = append(f.accumulated, pending...)
	stopped := len(f.workers)
	f.workers = nil

	if stopped > 0 || dropped > 0 {
		f.logger.Info("validation run stopped",
			"workers", stopped,
			"dropped_candidates", dropped,
			"collected_outcomes", len(pending),
		)
	}
}

// Wait blocks until every worker spawned by any Start has returned, or
// until ctx is done.
func (f *Finder) Wait(ctx context.Context) error {
	f.mu.Lock()
	runs := make([]chan struct{}, len(f.runs))
	copy(runs, f.runs)
	f.mu.Unlock()

	for _, done := range runs {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// IsFinished reports whether no tracked worker is alive.
func (f *Finder) IsFinished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.activeLocked() == 0
}

// Done reports whether the run is finished and every outcome has been drained.
func (f *Finder) Done() bool {
	return f.IsFinished() && f.results.Len() == 0
}

// ActiveWorkerCount returns the number of tracked workers still alive.
func (f *Finder) ActiveWorkerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.activeLocked()
}

// pendingRunsLocked counts the runs whose worker goroutines have not all
// returned. Workers of a stopped run are no longer tracked but may still be
// finishing a probe.
func (f *Finder) pendingRunsLocked() int {
	n := 0
	for _, done := range f.runs {
		select {
		case <-done:
		default:
			n++
		}
	}
	return n
}

func (f *Finder) activeLocked() int {
	n := 0
	for _, w := range f.workers {
		if w.Alive() {
			n++
		}
	}
	return n
}

// DrainLastResults returns the outcomes produced since the previous call
// and appends them to the accumulated results.
func (f *Finder) DrainLastResults() []model.ProbeOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	batch := f.results.DrainAll()
	f.accumulated = append(f.accumulated, batch...)
	return batch
}

// Results returns a copy of every outcome accumulated so far.
func (f *Finder) Results() []model.ProbeOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.ProbeOutcome, len(f.accumulated))
	copy(out, f.accumulated)
	return out
}

// ProxiesLeft returns the number of candidates still waiting in the queue.
func (f *Finder) ProxiesLeft() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.leftLocked()
}

func (f *Finder) leftLocked() int {
	if f.work == nil {
		return 0
	}
	return f.work.Len()
}

// EstimatedRemaining returns ProxiesLeft * ConnectTimeout / WorkerCount,
// truncated to whole seconds.
func (f *Finder) EstimatedRemaining() time.Duration {
	return estimate(f.ProxiesLeft(), f.cfg.ConnectTimeout, f.cfg.WorkerCount)
}

// EstimatedTimeRemaining returns EstimatedRemaining formatted as HH:MM:SS.
func (f *Finder) EstimatedTimeRemaining() string {
	return FormatClock(f.EstimatedRemaining())
}

// Progress returns a snapshot of the current run.
func (f *Finder) Progress() Progress {
	f.mu.Lock()
	defer f.mu.Unlock()

	left := f.leftLocked()
	checked := len(f.accumulated) + f.results.Len() - f.checkedBase
	if checked < 0 {
		checked = 0
	}

	return Progress{
		Total:         f.total,
		Dispatched:    f.total - left,
		Checked:       checked,
		Left:          left,
		ActiveWorkers: f.activeLocked(),
		ETA:           FormatClock(estimate(left, f.cfg.ConnectTimeout, f.cfg.WorkerCount)),
	}
}

// Elapsed returns the time since the last Start, or zero if never started.
func (f *Finder) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.startedAt.IsZero() {
		return 0
	}
	return time.Since(f.startedAt)
}

// estimate computes left*timeout/workers truncated to the second.
func estimate(left int, timeout time.Duration, workers int) time.Duration {
	if left <= 0 || workers <= 0 {
		return 0
	}
	d := time.Duration(left) * timeout / time.Duration(workers)
	return d.Truncate(time.Second)
}

// FormatClock renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func cloneCandidates(in []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(in))
	copy(out, in)
	return out
}
