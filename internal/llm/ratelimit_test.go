package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(10)
		for i := 0; i < 10; i++ {
			require.True(t, rl.tryAcquire(), "request %d", i)
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refills over time", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := newRateLimiter(60)
		rl.now = func() time.Time { return now }
		rl.lastRefill = now

		for rl.tryAcquire() {
		}
		assert.Equal(t, 0, rl.available())

		now = now.Add(2500 * time.Millisecond)
		assert.Equal(t, 2, rl.available())

		now = now.Add(time.Hour)
		assert.Equal(t, 60, rl.available())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("default rate", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Equal(t, 60, rl.capacity)
		assert.Equal(t, time.Second, rl.interval)
	})
}
