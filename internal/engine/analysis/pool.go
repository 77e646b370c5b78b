package analysis

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Errors returned by pool operations.
var (
	ErrAlreadyRunning = errors.New("pool already running")
	ErrNotRunning     = errors.New("pool not running")
	ErrQueueFull      = errors.New("pool queue full")
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// PanicHandler is invoked with the recovered value and stack when a
// task panics.
type PanicHandler func(recovered any, stack []byte)

func defaultPanicHandler(recovered any, stack []byte) {
	log.Error().
		Interface("panic", recovered).
		Bytes("stack", stack).
		Msg("analysis task panicked")
}

// Pool executes analysis passes on a bounded worker pool. It provides
// bounded queuing, panic recovery, and graceful shutdown.
type Pool struct {
	// Configuration
	queueSize   int
	workerCount int

	// State
	mu      sync.Mutex // protects queue creation, sends, and close
	queue   chan poolTask
	running atomic.Bool
	wg      sync.WaitGroup

	panicHandler PanicHandler

	// Stats
	enqueued  atomic.Uint64
	processed atomic.Uint64
	panicked  atomic.Uint64
	dropped   atomic.Uint64
}

type poolTask struct {
	ctx context.Context
	run Task
}

// NewPool creates a worker pool with default settings.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:    256,
		workerCount:  4,
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithPanicHandler sets the panic handler for task execution.
func WithPanicHandler(h PanicHandler) PoolOption {
	return func(p *Pool) {
		if h != nil {
			p.panicHandler = h
		}
	}
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan poolTask, p.queueSize)
	p.running.Store(true)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

// Stop stops the worker pool gracefully.
// It waits for all queued tasks to complete or until ctx is cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}

	p.running.Store(false)
	// Close the queue to signal workers to stop
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue adds a task to the queue for asynchronous execution.
// Returns ErrQueueFull if the queue is at capacity.
func (p *Pool) Enqueue(ctx context.Context, task Task) error {
	// The send happens under mu so Stop cannot close the queue
	// between the running check and the send.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}

	select {
	case p.queue <- poolTask{ctx: ctx, run: task}:
		p.enqueued.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// worker processes tasks from the queue.
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.queue {
		p.execute(task)
	}
}

// execute runs a single task with panic recovery.
func (p *Pool) execute(task poolTask) {
	p.processed.Add(1)

	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				p.panicHandler(r, stack)
			}()
		}
	}()

	if task.ctx.Err() != nil {
		return
	}
	task.run(task.ctx)
}

// QueueDepth returns the current number of tasks in the queue.
// Returns 0 if the pool is not running.
func (p *Pool) QueueDepth() int {
	if !p.running.Load() {
		return 0
	}
	return len(p.queue)
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Enqueued:   p.enqueued.Load(),
		Processed:  p.processed.Load(),
		Panicked:   p.panicked.Load(),
		Dropped:    p.dropped.Load(),
		QueueDepth: p.QueueDepth(),
	}
}

// PoolStats contains statistics for a pool.
type PoolStats struct {
	// Enqueued is the total number of tasks added to the queue.
	Enqueued uint64

	// Processed is the number of tasks that have been picked up.
	Processed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks refused because the queue was full.
	Dropped uint64

	// QueueDepth is the current number of tasks waiting in the queue.
	QueueDepth int
}
