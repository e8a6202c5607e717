// AngelaMos | 2026
// outbox.go

package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/metrics"
)

const taskTimeout = 30 * time.Second

// Task is a unit of best-effort work performed after a request returns.
type Task struct {
	Kind string
	Run  func(ctx context.Context) error
}

// Queue is a bounded in-process task queue drained by a fixed set of
// workers. Failed tasks are retried with exponential backoff; tasks
// failing with core.ErrNotConfigured are skipped without retry.
type Queue struct {
	tasks      chan Task
	workers    int
	maxRetries uint64
	backoff    time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg config.OutboxConfig) *Queue {
	workers := max(cfg.Workers, 1)
	size := max(cfg.QueueSize, 1)
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Queue{
		tasks:      make(chan Task, size),
		workers:    workers,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
	}
}

// Start launches the workers. They stop when Shutdown is called or ctx is
// cancelled.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for range q.workers {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

// Enqueue hands a task to the workers without blocking. It returns false
// when the queue is full or shutting down; the task is then dropped.
func (q *Queue) Enqueue(task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		slog.Error("outbox closed, task dropped", "kind", task.Kind)
		metrics.RecordTask(task.Kind, metrics.OutcomeDropped)
		return false
	}

	select {
	case q.tasks <- task:
		metrics.SetQueueDepth(len(q.tasks))
		return true
	default:
		slog.Error("outbox full, task dropped",
			"kind", task.Kind,
			"capacity", cap(q.tasks),
		)
		metrics.RecordTask(task.Kind, metrics.OutcomeDropped)
		return false
	}
}

func (q *Queue) Depth() int {
	return len(q.tasks)
}

func (q *Queue) Capacity() int {
	return cap(q.tasks)
}

// Shutdown stops intake and waits for queued tasks to finish. If ctx ends
// first the workers are cancelled and ctx.Err is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if q.cancel != nil {
			q.cancel()
		}
		return ctx.Err()
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()

	for task := range q.tasks {
		metrics.SetQueueDepth(len(q.tasks))
		q.execute(ctx, task)
	}
}

func (q *Queue) execute(ctx context.Context, task Task) {
	ctx, span := core.StartSpan(ctx, "outbox."+task.Kind,
		attribute.String("outbox.kind", task.Kind),
	)

	attempts := 0
	backoff := retry.WithMaxRetries(q.maxRetries, retry.NewExponential(q.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		runCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		defer cancel()

		err := runSafely(runCtx, task)
		if err == nil || errors.Is(err, core.ErrNotConfigured) {
			return err
		}

		slog.Warn("outbox task attempt failed",
			"kind", task.Kind,
			"attempt", attempts,
			"error", err,
		)
		return retry.RetryableError(err)
	})

	core.EndSpan(span, err)

	switch {
	case err == nil:
		metrics.RecordTask(task.Kind, metrics.OutcomeSucceeded)
	case errors.Is(err, core.ErrNotConfigured):
		slog.Warn("outbox task skipped", "kind", task.Kind, "reason", err)
		metrics.RecordTask(task.Kind, metrics.OutcomeSkipped)
	default:
		slog.Error("outbox task failed",
			"kind", task.Kind,
			"attempts", attempts,
			"error", err,
		)
		metrics.RecordTask(task.Kind, metrics.OutcomeFailed)
	}
}

func runSafely(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("task panicked")
			slog.Error("outbox task panic", "kind", task.Kind, "panic", rec)
		}
	}()

	return task.Run(ctx)
}
