package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis keeps the window in a sorted set per key, scored by arrival time
// in milliseconds, so the limit holds across server instances.
type Redis struct {
	Window time.Duration
	Limit  int
	Prefix string

	client redis.UniversalClient
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client redis.UniversalClient, window time.Duration, limit int) *Redis {
	return &Redis{Window: window, Limit: limit, Prefix: "ratelimit:", client: client}
}

func (l *Redis) Allow(ctx context.Context, key string) (domain.RateDecision, error) {
	now := time.Now()
	k := l.Prefix + key
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-l.Window).UnixMilli(), 10)

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, k)
		oldest = pipe.ZRangeWithScores(ctx, k, 0, 0)
		pipe.PExpire(ctx, k, l.Window)
		return nil
	})
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(card.Val())
	d := domain.RateDecision{Limit: l.Limit, Allowed: count <= l.Limit}
	if !d.Allowed {
		// Rejected requests do not occupy the window.
		if err := l.client.ZRem(ctx, k, member).Err(); err != nil {
			return domain.RateDecision{}, fmt.Errorf("redis rate limit: %w", err)
		}
		count--
	}
	d.Remaining = max(l.Limit-count, 0)
	d.ResetAt = now.Add(l.Window)
	if z := oldest.Val(); len(z) > 0 {
		d.ResetAt = time.UnixMilli(int64(z[0].Score)).Add(l.Window)
	}
	return d, nil
}
