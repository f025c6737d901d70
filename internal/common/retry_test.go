package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanbot/internal/service"
)

var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		}, fastRetry)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return boom
		}, fastRetry)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return Permanent(errors.New("bad key"))
		}, fastRetry)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 1, calls)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		opts := fastRetry
		opts.InitialDelay = time.Minute
		opts.MaxDelay = time.Minute

		err := WithRetry(ctx, func() error {
			cancel()
			return errors.New("fail")
		}, opts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWithRetryAttempts_ReportsEveryFailure(t *testing.T) {
	var failures []int
	err := WithRetryAttempts(context.Background(), func(attempt int) error {
		return errors.New("timeout")
	}, fastRetry, func(attempt int, _ error) {
		failures = append(failures, attempt)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, failures)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(Transient(errors.New("x"))))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestBackoff(t *testing.T) {
	b := newBackoff(service.RetryOptions{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     35 * time.Millisecond,
		Multiplier:   2,
	})
	plain := errors.New("reset")

	assert.Equal(t, 10*time.Millisecond, b.delay(plain))
	assert.Equal(t, 20*time.Millisecond, b.delay(plain))
	assert.Equal(t, 35*time.Millisecond, b.delay(plain))
	assert.Equal(t, 35*time.Millisecond, b.delay(plain))

	defaults := newBackoff(service.RetryOptions{})
	assert.Equal(t, 100*time.Millisecond, defaults.delay(plain))

	limited := newBackoff(service.RetryOptions{InitialDelay: time.Millisecond, MaxDelay: time.Second, Multiplier: 2})
	assert.Equal(t, time.Second, limited.delay(fmt.Errorf("%w: slow down", ErrRateLimit)))
}

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("Could not save metrics", cause)
	assert.Equal(t, "Could not save metrics: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Could not save metrics", UserMessage(err, "fallback"))
	assert.Equal(t, "Could not save metrics", UserMessage(fmt.Errorf("handler: %w", err), "fallback"))
	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
	assert.Equal(t, "fallback", UserMessage(cause, "fallback"))
}

func TestParseLevelAndLogger(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("shown", "session_id", "abc")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"session_id":"abc"`)
}
