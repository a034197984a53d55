package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsTasks(t *testing.T) {
	p := NewPool(Config{Workers: 2, QueueSize: 10})

	var n atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit("count", func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, int32(5), n.Load())
}

func TestPool_FailuresAndPanicsAreContained(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 10})

	var after atomic.Bool
	require.NoError(t, p.Submit("fails", func(ctx context.Context) error { return errors.New("boom") }))
	require.NoError(t, p.Submit("panics", func(ctx context.Context) error { panic("boom") }))
	require.NoError(t, p.Submit("after", func(ctx context.Context) error {
		after.Store(true)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.True(t, after.Load(), "worker must survive a panicking task")
}

func TestPool_TaskTimeout(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 1, TaskTimeout: 20 * time.Millisecond})

	deadline := make(chan bool, 1)
	require.NoError(t, p.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadline <- errors.Is(ctx.Err(), context.DeadlineExceeded)
		return ctx.Err()
	}))

	select {
	case ok := <-deadline:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("task context never expired")
	}
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_QueueFullAndStopped(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit("block", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, p.Submit("queued", func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.Submit("overflow", func(ctx context.Context) error { return nil }), ErrQueueFull)

	close(release)
	require.NoError(t, p.Stop(context.Background()))
	assert.ErrorIs(t, p.Submit("late", func(ctx context.Context) error { return nil }), ErrPoolStopped)
	assert.NoError(t, p.Stop(context.Background()), "second stop is a no-op")
}

func TestInline(t *testing.T) {
	ran := false
	err := Inline{}.Submit("inline", func(ctx context.Context) error {
		ran = true
		return errors.New("ignored")
	})
	assert.NoError(t, err)
	assert.True(t, ran)
	assert.NotPanics(t, func() {
		_ = Inline{}.Submit("panic", func(ctx context.Context) error { panic("x") })
	})
}
