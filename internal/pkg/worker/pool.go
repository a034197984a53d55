package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrQueueFull   = errors.New("worker queue is full")
)

// Runner hands a task off for execution outside the caller's request.
// Submit never blocks and never runs fn on the caller's goroutine unless the
// implementation documents otherwise.
type Runner interface {
	Submit(name string, fn func(ctx context.Context) error) error
}

// Config holds worker pool configuration
type Config struct {
	Workers     int           // default: 4
	QueueSize   int           // default: 256
	TaskTimeout time.Duration // default: 30 seconds
}

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Pool runs fire-and-forget tasks on a fixed set of goroutines. Every task
// gets its own timeout and panic boundary, so a failing task is logged and
// never reaches whoever submitted it.
type Pool struct {
	cfg   Config
	queue chan task
	wg    sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool and starts its workers
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}

	p := &Pool{
		cfg:   cfg,
		queue: make(chan task, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}

	slog.Info("Worker pool started", "workers", cfg.Workers, "queue_size", cfg.QueueSize)
	return p
}

// Submit implements Runner.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		slog.Warn("Task dropped, pool stopped", "task", name)
		return ErrPoolStopped
	}

	select {
	case p.queue <- task{name: name, fn: fn}:
		return nil
	default:
		slog.Warn("Task dropped, queue full", "task", name, "queue_size", p.cfg.QueueSize)
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to expire.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.execute(id, t)
	}
}

func (p *Pool) execute(id int, t task) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", t.name, "worker", id, "panic", r)
		}
	}()

	if err := t.fn(ctx); err != nil {
		slog.Error("Task failed", "task", t.name, "worker", id, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("Task completed", "task", t.name, "worker", id, "duration", time.Since(start))
}

// Inline runs tasks synchronously on the caller's goroutine with the same
// error boundary as Pool. Used by tests and one-shot tools.
type Inline struct{}

func (Inline) Submit(name string, fn func(ctx context.Context) error) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", name, "panic", r)
		}
	}()
	if err := fn(context.Background()); err != nil {
		slog.Error("Task failed", "task", name, "error", err)
	}
	return nil
}
