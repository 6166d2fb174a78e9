package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter throttles back-office callers with a sliding window kept in a
// Redis sorted set per caller. Settings and pricing mutations fan out a
// full inventory repricing, so the admin write endpoints are the traffic
// worth protecting; reads share the same budget for simplicity.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one request for caller and reports whether the caller is
// still inside its window budget. A nil client or a non-positive budget
// disables limiting rather than rejecting traffic.
func (l Limiter) Allow(ctx context.Context, caller string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	windowEnd := now.Add(window)
	cutoff := float64(now.Add(-window).UnixNano())

	bucket := l.bucketKey(caller)
	entry := caller + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", strconv.FormatFloat(cutoff, 'f', -1, 64))
	pipe.ZAdd(ctx, bucket, redis.Z{Score: float64(now.UnixNano()), Member: entry})
	inWindow := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, windowEnd, err
	}

	used := int(inWindow.Val())
	remaining = max - used
	if remaining < 0 {
		remaining = 0
	}
	return used <= max, remaining, windowEnd, nil
}

func (l Limiter) bucketKey(caller string) string {
	return l.Prefix + caller
}
