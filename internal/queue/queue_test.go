package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

func candidate(i int) model.Candidate {
	return model.Candidate{Protocol: model.ProtocolHTTP, Host: fmt.Sprintf("10.0.0.%d", i), Port: 8080}
}

// TestWorkQueue tests FIFO behavior of the work queue.
func TestWorkQueue(t *testing.T) {
	t.Parallel()

	t.Run("pops in push order", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		q.Push(candidate(1), candidate(2))
		q.Push(candidate(3))

		for i := 1; i <= 3; i++ {
			got, ok := q.TryPop()
			if !ok {
				t.Fatalf("expected item %d", i)
			}
			if got != candidate(i) {
				t.Errorf("expected %s, got %s", candidate(i), got)
			}
		}
		if _, ok := q.TryPop(); ok {
			t.Error("expected empty queue")
		}
	})

	t.Run("len reflects waiting items", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		q.Push(candidate(1), candidate(2))
		if q.Len() != 2 {
			t.Errorf("expected 2, got %d", q.Len())
		}
		q.TryPop()
		if q.Len() != 1 {
			t.Errorf("expected 1, got %d", q.Len())
		}
	})

	t.Run("push after close is rejected", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		q.Close()
		if q.Push(candidate(1)) {
			t.Error("expected push to closed queue to fail")
		}
		if q.Len() != 0 {
			t.Errorf("expected empty queue, got %d", q.Len())
		}
	})

	t.Run("clear drops items and reports count", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		q.Push(candidate(1), candidate(2), candidate(3))
		if n := q.Clear(); n != 3 {
			t.Errorf("expected 3 dropped, got %d", n)
		}
		if q.Len() != 0 {
			t.Errorf("expected empty queue, got %d", q.Len())
		}
	})

	t.Run("pop returns false on closed empty queue", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		q.Push(candidate(1))
		q.Close()

		if _, ok := q.Pop(context.Background()); !ok {
			t.Error("expected remaining item after close")
		}
		if _, ok := q.Pop(context.Background()); ok {
			t.Error("expected false from drained closed queue")
		}
	})

	t.Run("pop waits for a push", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		done := make(chan model.Candidate, 1)
		go func() {
			c, _ := q.Pop(context.Background())
			done <- c
		}()

		time.Sleep(20 * time.Millisecond)
		q.Push(candidate(7))

		select {
		case got := <-done:
			if got != candidate(7) {
				t.Errorf("expected %s, got %s", candidate(7), got)
			}
		case <-time.After(time.Second):
			t.Fatal("pop did not wake up")
		}
	})

	t.Run("pop returns when context is cancelled", func(t *testing.T) {
		t.Parallel()

		q := NewWorkQueue()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool, 1)
		go func() {
			_, ok := q.Pop(ctx)
			done <- ok
		}()

		cancel()
		select {
		case ok := <-done:
			if ok {
				t.Error("expected false after cancellation")
			}
		case <-time.After(time.Second):
			t.Fatal("pop did not return after cancel")
		}
	})

	t.Run("concurrent consumers take each item exactly once", func(t *testing.T) {
		t.Parallel()

		const n = 500
		q := NewWorkQueue()
		for i := 0; i < n; i++ {
			q.Push(model.Candidate{Protocol: model.ProtocolHTTP, Host: fmt.Sprintf("h%d", i), Port: 1})
		}
		q.Close()

		var mu sync.Mutex
		seen := make(map[string]int)
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					c, ok := q.TryPop()
					if !ok {
						return
					}
					mu.Lock()
					seen[c.Host]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != n {
			t.Errorf("expected %d distinct items, got %d", n, len(seen))
		}
		for host, count := range seen {
			if count != 1 {
				t.Errorf("host %s popped %d times", host, count)
			}
		}
	})
}

// TestResultChannel tests the result conduit.
func TestResultChannel(t *testing.T) {
	t.Parallel()

	t.Run("drain returns outcomes in push order", func(t *testing.T) {
		t.Parallel()

		r := NewResultChannel()
		r.Push(model.ProbeOutcome{Candidate: candidate(1)})
		r.Push(model.ProbeOutcome{Candidate: candidate(2), Error: model.ReasonConnectionError})

		got := r.DrainAll()
		if len(got) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(got))
		}
		if got[0].Candidate != candidate(1) || got[1].Candidate != candidate(2) {
			t.Errorf("unexpected order: %v", got)
		}
		if r.Len() != 0 {
			t.Errorf("expected empty channel after drain, got %d", r.Len())
		}
	})

	t.Run("drain on empty channel returns nil", func(t *testing.T) {
		t.Parallel()

		r := NewResultChannel()
		if got := r.DrainAll(); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("concurrent producers lose nothing", func(t *testing.T) {
		t.Parallel()

		r := NewResultChannel()
		var wg sync.WaitGroup
		for w := 0; w < 10; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					r.Push(model.ProbeOutcome{Candidate: candidate(i)})
				}
			}()
		}

		total := 0
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
	loop:
		for {
			total += len(r.DrainAll())
			select {
			case <-done:
				total += len(r.DrainAll())
				break loop
			default:
			}
		}

		if total != 1000 {
			t.Errorf("expected 1000 outcomes, got %d", total)
		}
	})
}
