package queue

import (
	"context"
	"sync"

	"github.com/nao1215/proxyfinder/internal/model"
)

// WorkQueue is a thread-safe FIFO of candidates awaiting a probe.
// Every pushed candidate is handed to at most one consumer.
type WorkQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []model.Candidate
	closed bool
}

// NewWorkQueue creates an empty, open WorkQueue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends candidates to the tail of the queue.
// Pushing to a closed queue is a no-op and reports false.
func (q *WorkQueue) Push(candidates ...model.Candidate) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, candidates...)
	q.cond.Broadcast()
	return true
}

// Close marks the queue as complete. Consumers blocked in Pop return
// once the remaining items are gone.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// TryPop removes and returns the head of the queue without blocking.
// ok is false when the queue is empty.
func (q *WorkQueue) TryPop() (model.Candidate, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.popLocked()
}

// Pop removes and returns the head of the queue, waiting for an item if
// the queue is empty but still open. ok is false when the queue is closed
// and drained, or when ctx is done.
func (q *WorkQueue) Pop(ctx context.Context) (model.Candidate, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	if ctx.Err() != nil {
		return model.Candidate{}, false
	}
	return q.popLocked()
}

// popLocked pops the head item. The caller must hold q.mu.
func (q *WorkQueue) popLocked() (model.Candidate, bool) {
	if len(q.items) == 0 {
		return model.Candidate{}, false
	}
	c := q.items[0]
	q.items[0] = model.Candidate{}
	q.items = q.items[1:]
	return c, true
}

// Len returns the number of candidates still waiting.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Clear drops every waiting candidate, closes the queue and returns how
// many candidates were dropped.
func (q *WorkQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.closed = true
	q.cond.Broadcast()
	return n
}
