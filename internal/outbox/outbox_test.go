// AngelaMos | 2026
// outbox_test.go

package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

func newQueue(workers, size int, retries uint64) *Queue {
	return New(config.OutboxConfig{
		Workers:    workers,
		QueueSize:  size,
		MaxRetries: retries,
		Backoff:    time.Millisecond,
	})
}

func shutdown(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))
}

func TestQueueRunsTasks(t *testing.T) {
	q := newQueue(2, 10, 0)
	q.Start(context.Background())

	var ran atomic.Int32
	for range 5 {
		ok := q.Enqueue(Task{Kind: "test", Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}})
		require.True(t, ok)
	}

	shutdown(t, q)
	assert.Equal(t, int32(5), ran.Load())
}

func TestQueueRetriesFailures(t *testing.T) {
	q := newQueue(1, 1, 3)
	q.Start(context.Background())

	var attempts atomic.Int32
	q.Enqueue(Task{Kind: "flaky", Run: func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("temporary")
		}
		return nil
	}})

	shutdown(t, q)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	q := newQueue(1, 1, 2)
	q.Start(context.Background())

	var attempts atomic.Int32
	q.Enqueue(Task{Kind: "broken", Run: func(context.Context) error {
		attempts.Add(1)
		return errors.New("always")
	}})

	shutdown(t, q)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueueSkipsNotConfigured(t *testing.T) {
	q := newQueue(1, 1, 5)
	q.Start(context.Background())

	var attempts atomic.Int32
	q.Enqueue(Task{Kind: "email", Run: func(context.Context) error {
		attempts.Add(1)
		return fmt.Errorf("smtp: %w", core.ErrNotConfigured)
	}})

	shutdown(t, q)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	q := newQueue(1, 1, 0)

	assert.True(t, q.Enqueue(Task{Kind: "a", Run: func(context.Context) error { return nil }}))
	assert.False(t, q.Enqueue(Task{Kind: "b", Run: func(context.Context) error { return nil }}))
	assert.Equal(t, 1, q.Depth())

	q.Start(context.Background())
	shutdown(t, q)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := newQueue(1, 4, 0)
	q.Start(context.Background())
	shutdown(t, q)

	assert.False(t, q.Enqueue(Task{Kind: "late", Run: func(context.Context) error { return nil }}))
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	q := newQueue(1, 4, 0)
	q.Start(context.Background())

	var ran atomic.Bool
	q.Enqueue(Task{Kind: "panic", Run: func(context.Context) error { panic("boom") }})
	q.Enqueue(Task{Kind: "after", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	shutdown(t, q)
	assert.True(t, ran.Load())
}
