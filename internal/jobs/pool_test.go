package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/letter5700/backend/internal/platform/logger"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := newTestPool(t, 2, 8)
	p.Start()
	defer p.Stop()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		p.Submit("count", func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
	}
	wg.Wait()

	if got := ran.Load(); got != 5 {
		t.Fatalf("tasks ran: want=5 got=%d", got)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	p := newTestPool(t, 1, 4)
	p.Start()
	defer p.Stop()

	done := make(chan struct{})
	p.Submit("panics", func(ctx context.Context) {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("panicking task never ran")
	}

	// The worker must survive the panic and keep serving tasks.
	after := make(chan struct{})
	p.Submit("after", func(ctx context.Context) {
		close(after)
	})
	select {
	case <-after:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker dead after panic")
	}
}

func TestPoolSubmitNeverBlocksWhenQueueFull(t *testing.T) {
	p := newTestPool(t, 1, 1)
	p.Start()
	defer p.Stop()

	block := make(chan struct{})
	var ran atomic.Int32

	// Occupy the single worker, then overfill the queue.
	p.Submit("blocker", func(ctx context.Context) {
		<-block
	})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		submitted := make(chan struct{})
		go func() {
			p.Submit("overflow", func(ctx context.Context) {
				defer wg.Done()
				ran.Add(1)
			})
			close(submitted)
		}()
		select {
		case <-submitted:
		case <-time.After(2 * time.Second):
			t.Fatalf("Submit blocked the caller")
		}
	}

	close(block)
	wg.Wait()
	if got := ran.Load(); got != 4 {
		t.Fatalf("overflow tasks ran: want=4 got=%d", got)
	}
}

func TestPoolStopDrainsQueuedTasks(t *testing.T) {
	p := newTestPool(t, 1, 8)
	p.Start()

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		p.Submit("drain", func(ctx context.Context) {
			ran.Add(1)
		})
	}
	p.Stop()

	if got := ran.Load(); got != 3 {
		t.Fatalf("tasks drained: want=3 got=%d", got)
	}

	// After Stop, submissions are dropped without panicking.
	p.Submit("late", func(ctx context.Context) {
		t.Errorf("late task must not run")
	})
}

func newTestPool(t *testing.T, workers, queueSize int) *Pool {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return NewPool(log, workers, queueSize)
}
