package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce_AppliesTimeout(t *testing.T) {
	var logs bytes.Buffer
	s := New("07:00", time.UTC, 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, zerolog.New(&logs))

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, logs.String(), "scheduled job failed")
}

func TestRunOnce_Success(t *testing.T) {
	var logs bytes.Buffer
	calls := 0
	s := New("07:00", time.UTC, time.Second, func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}, zerolog.New(&logs))

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Contains(t, logs.String(), "scheduled job finished")
}

func TestStart_InvalidTime(t *testing.T) {
	s := New("25:99", time.UTC, time.Second, func(ctx context.Context) error { return nil }, zerolog.Nop())

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "scheduling job at 25:99")
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := New("07:00", time.UTC, time.Second, func(ctx context.Context) error { return nil }, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
