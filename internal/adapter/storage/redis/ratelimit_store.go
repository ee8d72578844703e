package redis

import (
	"context"
	"fmt"
	"time"

	"settlement-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// RateLimitStore implements ports.RateLimiter with fixed-window Redis counters.
type RateLimitStore struct {
	client goredis.UniversalClient
	now    func() time.Time
}

func NewRateLimitStore(client goredis.UniversalClient) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

// windowKey scopes key to the window containing now.
func windowKey(key string, now time.Time, window time.Duration) (string, int64) {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	id := now.Unix() / secs
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, id), (id + 1) * secs
}

// Allow counts one request for key. INCR and EXPIRE run in one MULTI so a
// counter never outlives its window.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	redisKey, resetAt := windowKey(key, s.now(), window)

	var incr *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, window+time.Second)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := incr.Val()
	return &ports.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}, nil
}
