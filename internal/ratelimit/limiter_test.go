package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_EnforcesSpacing(t *testing.T) {
	t.Parallel()
	const delay = 50 * time.Millisecond
	limiter := New(delay)
	ctx := context.Background()

	// First admission is immediate; the rest are spaced.
	require.NoError(t, limiter.Wait(ctx))

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx))
		stamps = append(stamps, time.Now())
	}
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, delay-5*time.Millisecond, "admission %d too close", i)
	}
}

func TestWait_ZeroDelayDoesNotThrottle(t *testing.T) {
	t.Parallel()
	limiter := New(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ContextCancelled(t *testing.T) {
	t.Parallel()
	limiter := New(time.Minute)
	ctx := context.Background()

	// Drain the single burst token so the next Wait must queue.
	require.NoError(t, limiter.Wait(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := limiter.Wait(cancelled)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
