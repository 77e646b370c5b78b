package analysis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chargen/poshtools/internal/engine/analysis"
)

func startPool(t *testing.T, opts ...analysis.PoolOption) *analysis.Pool {
	t.Helper()
	p := analysis.NewPool(opts...)
	require.NoError(t, p.Start())
	t.Cleanup(func() { _ = p.Stop(context.Background()) })
	return p
}

func TestPoolExecutesTasks(t *testing.T) {
	p := startPool(t)

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		err := p.Enqueue(context.Background(), func(context.Context) {
			ran.Add(1)
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return ran.Load() == 10
	}, 5*time.Second, 5*time.Millisecond)

	stats := p.Stats()
	require.EqualValues(t, 10, stats.Enqueued)
	require.Zero(t, stats.Dropped)
}

func TestPoolStartTwice(t *testing.T) {
	p := startPool(t)
	require.ErrorIs(t, p.Start(), analysis.ErrAlreadyRunning)
}

func TestPoolEnqueueWhenStopped(t *testing.T) {
	p := analysis.NewPool()
	err := p.Enqueue(context.Background(), func(context.Context) {})
	require.ErrorIs(t, err, analysis.ErrNotRunning)
}

func TestPoolStopDrainsQueue(t *testing.T) {
	p := analysis.NewPool(analysis.WithWorkerCount(1))
	require.NoError(t, p.Start())

	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Enqueue(context.Background(), func(context.Context) {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.EqualValues(t, 5, ran.Load(), "queued tasks finish before Stop returns")
}

func TestPoolQueueFull(t *testing.T) {
	p := startPool(t, analysis.WithWorkerCount(1), analysis.WithQueueSize(1))

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the single queue slot.
	require.NoError(t, p.Enqueue(context.Background(), func(context.Context) { <-block }))
	require.Eventually(t, func() bool {
		return p.Stats().Processed == 1
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, p.Enqueue(context.Background(), func(context.Context) {}))

	err := p.Enqueue(context.Background(), func(context.Context) {})
	require.ErrorIs(t, err, analysis.ErrQueueFull)
	require.EqualValues(t, 1, p.Stats().Dropped)
}

func TestPoolRecoversPanics(t *testing.T) {
	var recovered atomic.Value
	p := startPool(t, analysis.WithPanicHandler(func(r any, stack []byte) {
		recovered.Store(r)
		_ = stack
	}))

	require.NoError(t, p.Enqueue(context.Background(), func(context.Context) {
		panic("task exploded")
	}))

	require.Eventually(t, func() bool {
		return p.Stats().Panicked == 1
	}, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, "task exploded", recovered.Load())

	// The worker survives and keeps processing.
	var ran atomic.Bool
	require.NoError(t, p.Enqueue(context.Background(), func(context.Context) {
		ran.Store(true)
	}))
	require.Eventually(t, func() bool { return ran.Load() }, 5*time.Second, 5*time.Millisecond)
}

func TestPoolEnqueueDuringStopDoesNotPanic(t *testing.T) {
	// Hammer Enqueue while Stop closes the queue. A send that slips
	// past the running check onto the closed channel would panic the
	// enqueuing goroutine.
	for i := 0; i < 50; i++ {
		p := analysis.NewPool(analysis.WithWorkerCount(2))
		require.NoError(t, p.Start())

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 100; k++ {
					err := p.Enqueue(context.Background(), func(context.Context) {})
					if errors.Is(err, analysis.ErrNotRunning) {
						return
					}
				}
			}()
		}

		require.NoError(t, p.Stop(context.Background()))
		wg.Wait()
	}
}

func TestPoolSkipsCancelledTasks(t *testing.T) {
	p := startPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	require.NoError(t, p.Enqueue(ctx, func(context.Context) { ran.Store(true) }))

	require.Eventually(t, func() bool {
		return p.Stats().Processed >= 1
	}, 5*time.Second, 5*time.Millisecond)
	require.False(t, ran.Load(), "a task whose context died before pickup never runs")
}
