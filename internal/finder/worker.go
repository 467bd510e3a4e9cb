package finder

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
	"github.com/nao1215/proxyfinder/internal/queue"
)

// Prober checks a single candidate against a target URL.
// Implementations report failures through ProbeOutcome.Error and must be
// safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, candidate model.Candidate, targetURL string, timeout time.Duration) model.ProbeOutcome
}

// WorkerState is the lifecycle state of a Worker.
type WorkerState int32

const (
	// WorkerIdle is a worker that has not started running.
	WorkerIdle WorkerState = iota

	// WorkerRunning is a worker pulling and probing candidates.
	WorkerRunning

	// WorkerDraining is a worker that found the work queue empty.
	WorkerDraining

	// WorkerStopped is a worker that observed its stop flag.
	WorkerStopped

	// WorkerTerminated is a worker whose goroutine has returned.
	WorkerTerminated
)

// String returns the state name.
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerDraining:
		return "draining"
	case WorkerStopped:
		return "stopped"
	case WorkerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Worker pulls candidates from a WorkQueue, probes them and pushes the
// outcomes to a ResultChannel.
type Worker struct {
	id      int
	work    *queue.WorkQueue
	results *queue.ResultChannel
	prober  Prober
	cfg     model.RunConfig
	logger  *slog.Logger

	state  atomic.Int32
	stop   atomic.Bool
	probed atomic.Int64
}

// newWorker creates an idle worker.
func newWorker(id int, work *queue.WorkQueue, results *queue.ResultChannel, prober Prober, cfg model.RunConfig, logger *slog.Logger) *Worker {
	return &Worker{
		id:      id,
		work:    work,
		results: results,
		prober:  prober,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run processes candidates until the work queue is empty, Stop is called
// or ctx is done. The stop flag is checked before each candidate, so a
// probe that has already started always completes and is pushed.
func (w *Worker) Run(ctx context.Context) {
	w.setState(WorkerRunning)
	defer w.setState(WorkerTerminated)

	for {
		if w.stop.Load() || ctx.Err() != nil {
			w.setState(WorkerStopped)
			w.logger.Debug("worker stopped", "worker", w.id, "probed", w.probed.Load())
			return
		}

		candidate, ok := w.work.TryPop()
		if !ok {
			w.setState(WorkerDraining)
			w.logger.Debug("worker drained queue", "worker", w.id, "probed", w.probed.Load())
			return
		}

		w.results.Push(w.probe(ctx, candidate))
		w.probed.Add(1)
	}
}

// probe runs the prober and turns a panic into a failed outcome.
func (w *Worker) probe(ctx context.Context, candidate model.Candidate) (outcome model.ProbeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("probe panicked",
				"worker", w.id,
				"proxy", candidate.String(),
				"panic", r,
			)
			outcome = model.ProbeOutcome{
				Candidate: candidate,
				Error:     model.ReasonGenericError,
				CheckedAt: time.Now(),
			}
		}
	}()

	return w.prober.Probe(ctx, candidate, w.cfg.TargetURL, w.cfg.ConnectTimeout)
}

// Stop asks the worker to exit before its next candidate.
func (w *Worker) Stop() {
	w.stop.Store(true)
}

// State returns the current lifecycle state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Alive reports whether the worker has not yet terminated.
// A worker counts as alive from creation so that a freshly spawned
// goroutine is never mistaken for a finished one.
func (w *Worker) Alive() bool {
	return w.State() != WorkerTerminated
}

func (w *Worker) setState(s WorkerState) {
	w.state.Store(int32(s))
}
