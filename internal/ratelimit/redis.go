package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter backed by one sorted set per key, so several server
// processes can share a window.
type Redis struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedis returns a Limiter that stores windows under "rate_limit:<key>".
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: "rate_limit:", now: time.Now}
}

// Allow implements Limiter. Prune, record and count run in one MULTI/EXEC.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	redisKey := r.prefix + key
	cutoff := now.Add(-window).UnixNano()

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixNano()),
			Member: uuid.NewString(),
		})
		card = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return card.Val() <= int64(limit), nil
}
