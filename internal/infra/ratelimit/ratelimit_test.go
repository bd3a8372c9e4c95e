package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemory_SlidingWindow(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewInMemory(15*time.Minute, 3)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		clock = clock.Add(time.Minute)
	}

	d, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 15, 0, 0, time.UTC), d.ResetAt)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed, "keys are independent")

	// The first hit leaves the window 15 minutes after it arrived.
	clock = time.Date(2026, 5, 1, 12, 15, 0, 1, time.UTC)
	d, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (domain.RateDecision, error) {
	return domain.RateDecision{}, errors.New("connection refused")
}

func TestFallback_UsesSecondaryOnError(t *testing.T) {
	f := NewFallback(failingLimiter{}, NewInMemory(time.Minute, 1), zap.NewNop())

	d, err := f.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = f.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
