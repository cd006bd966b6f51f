// Package background runs best-effort work off the caller's path. Task
// errors and panics are logged and never returned to whoever submitted them.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Task is one unit of background work.
type Task func(ctx context.Context) error

// Config configures a Queue.
type Config struct {
	MaxWorkers  int
	TaskTimeout time.Duration
}

// Queue is a bounded pool of fire-and-forget tasks.
type Queue struct {
	pool    *pool.Pool
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// NewQueue starts a queue.
func NewQueue(cfg Config, logger *slog.Logger) *Queue {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		pool:    pool.New().WithMaxGoroutines(cfg.MaxWorkers),
		logger:  logger,
		timeout: cfg.TaskTimeout,
	}
}

// Submit schedules task under name. It reports false when the queue is
// closed. Submit blocks only while every worker is busy.
func (q *Queue) Submit(name string, task Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("background queue closed, dropping task", "task", name)
		return false
	}

	q.pool.Go(func() {
		q.run(name, task)
	})
	return true
}

func (q *Queue) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = task(ctx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		q.logger.Warn("background task failed",
			"task", name,
			"duration", time.Since(start),
			"error", err)
		return
	}
	q.logger.Debug("background task finished", "task", name, "duration", time.Since(start))
}

// Close stops accepting tasks and waits for the ones already submitted.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.pool.Wait()
}
