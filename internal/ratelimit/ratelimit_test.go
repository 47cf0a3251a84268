package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedRateLimiterPacesCalls(t *testing.T) {
	r := NewFixedRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, r.Wait(ctx))

	start := time.Now()
	require.NoError(t, r.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestWaitRespectsContext(t *testing.T) {
	r := NewFixedRateLimiter(time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Wait(ctx))

	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := r.Wait(cancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJitterStaysWithinBounds(t *testing.T) {
	r := NewSimpleRateLimiter(10*time.Millisecond, 30*time.Millisecond)

	for i := 0; i < 20; i++ {
		d := r.calculateDelay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 30*time.Millisecond)
	}
}
