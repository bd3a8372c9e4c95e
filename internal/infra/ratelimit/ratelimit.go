// Package ratelimit counts requests per key over a sliding window. Only
// admitted requests occupy the window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// InMemory keeps a timestamp log per key in process memory.
type InMemory struct {
	Window time.Duration
	Limit  int

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewInMemory creates a limiter admitting limit requests per window.
func NewInMemory(window time.Duration, limit int) *InMemory {
	return &InMemory{
		Window: window,
		Limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *InMemory) Allow(_ context.Context, key string) (domain.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.Window)
	l.sweep(now, cutoff)

	log := prune(l.hits[key], cutoff)
	d := domain.RateDecision{Limit: l.Limit}
	if len(log) < l.Limit {
		log = append(log, now)
		d.Allowed = true
	}
	l.hits[key] = log

	d.Remaining = l.Limit - len(log)
	if len(log) > 0 {
		d.ResetAt = log[0].Add(l.Window)
	} else {
		d.ResetAt = now.Add(l.Window)
	}
	return d, nil
}

// sweep drops idle keys at most once per window.
func (l *InMemory) sweep(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < l.Window {
		return
	}
	l.lastSweep = now
	for k, log := range l.hits {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(l.hits, k)
		}
	}
}

func prune(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	return log[i:]
}

// Fallback consults primary and switches to secondary for any request on
// which primary fails.
type Fallback struct {
	primary   port.Limiter
	secondary port.Limiter
	logger    *zap.Logger
}

// NewFallback wraps primary with secondary.
func NewFallback(primary, secondary port.Limiter, logger *zap.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Allow(ctx context.Context, key string) (domain.RateDecision, error) {
	d, err := f.primary.Allow(ctx, key)
	if err == nil {
		return d, nil
	}
	f.logger.Warn("rate limiter: primary failed, using fallback", zap.Error(err))
	return f.secondary.Allow(ctx, key)
}
