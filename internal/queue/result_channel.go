package queue

import (
	"sync"

	"github.com/nao1215/proxyfinder/internal/model"
)

// ResultChannel carries finished outcomes from workers to the consumer.
// Producers never block and the consumer drains without blocking.
type ResultChannel struct {
	mu    sync.Mutex
	items []model.ProbeOutcome
}

// NewResultChannel creates an empty ResultChannel.
func NewResultChannel() *ResultChannel {
	return &ResultChannel{}
}

// Push appends an outcome.
func (r *ResultChannel) Push(outcome model.ProbeOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, outcome)
}

// DrainAll removes and returns every queued outcome in push order.
// It returns nil when nothing is queued.
func (r *ResultChannel) DrainAll() []model.ProbeOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil
	}
	drained := r.items
	r.items = nil
	return drained
}

// Len returns the number of queued outcomes.
func (r *ResultChannel) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}
