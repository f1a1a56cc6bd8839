package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed windows shared by every instance
// pointing at the same Redis.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	requests int64
	window   time.Duration
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		requests: int64(requests),
		window:   window,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := l.prefix + "ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return incr.Val() <= l.requests, nil
}
