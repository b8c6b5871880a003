package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsInvalidSpec(t *testing.T) {
	s := New(nil, 0)
	err := s.Register("bad", "not a cron", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := New(nil, 0)
	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Register("reminders", "0 8 * * *", noop))
	assert.Error(t, s.Register("reminders", "0 9 * * *", noop))
}

func TestRunNowExecutesTask(t *testing.T) {
	s := New(nil, time.Second)
	calls := 0
	require.NoError(t, s.Register("reminders", "0 8 * * *", func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return errors.New("logged, not returned")
	}))

	require.NoError(t, s.RunNow("reminders"))
	assert.Equal(t, 1, calls)
	assert.Error(t, s.RunNow("missing"))
}

func TestNextAfterStart(t *testing.T) {
	s := New(nil, 0)
	require.NoError(t, s.Register("hourly", "0 * * * *", func(ctx context.Context) error { return nil }))
	s.Start()
	defer s.Stop(context.Background())

	next, ok := s.Next("hourly")
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 0, next.Minute())
}
