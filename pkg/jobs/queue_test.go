package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "ping", Payload: 1}))

	select {
	case job := <-done:
		assert.Equal(t, "ping", job.Type)
		assert.NotEmpty(t, job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	finished := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		close(finished)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-finished:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{Type: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueResultHook(t *testing.T) {
	results := make(chan error, 1)
	q := NewQueue("hook", func(ctx context.Context, job Job) error {
		return errors.New("nope")
	}, QueueConfig{MaxRetries: 0, OnResult: func(job Job, err error, elapsed time.Duration) {
		results <- err
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "x"}))
	select {
	case err := <-results:
		assert.EqualError(t, err, "nope")
	case <-time.After(2 * time.Second):
		t.Fatal("hook not invoked")
	}
}

func TestQueueEnqueueFullBufferDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	picked := make(chan struct{}, 1)
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		picked <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{Type: "busy"}))
	select {
	case <-picked:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first job")
	}
	require.NoError(t, q.Enqueue(Job{Type: "buffered"}))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(Job{Type: "overflow"}) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full buffer")
	}
	assert.Equal(t, 1, q.Len())
}
