package jobs

import (
	"context"
	"sync"

	"github.com/letter5700/backend/internal/platform/logger"
)

// Pool runs detached tasks off the request path. A task owns its whole
// failure handling: errors and panics never reach the submitter.
type Pool struct {
	log     *logger.Logger
	tasks   chan task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
	started bool
	closed  bool
	mu      sync.Mutex
}

type task struct {
	name string
	run  func(ctx context.Context)
}

func NewPool(baseLog *logger.Logger, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		log:     baseLog.With("component", "JobPool"),
		tasks:   make(chan task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
	}
}

// Start launches the worker goroutines. Safe to call once.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.runTask(t)
	}
}

func (p *Pool) runTask(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Task panicked", "task", t.name, "panic", r)
		}
	}()
	t.run(p.ctx)
}

// Submit hands a task to the pool and returns immediately. If the queue is
// full the task still runs, on its own goroutine, so the submitter is
// never blocked and the task is never dropped.
func (p *Pool) Submit(name string, run func(ctx context.Context)) {
	t := task{name: name, run: run}

	// The mutex is held across the non-blocking send so Stop cannot close
	// the channel mid-submit.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.log.Warn("Pool stopped; dropping task", "task", name)
		return
	}
	select {
	case p.tasks <- t:
	default:
		p.log.Warn("Task queue full; running on ad-hoc goroutine", "task", name)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runTask(t)
		}()
	}
}

// Stop closes the queue, waits for in-flight tasks to finish, then cancels
// the pool context handed to tasks.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.tasks)
	p.wg.Wait()
	p.cancel()
}
