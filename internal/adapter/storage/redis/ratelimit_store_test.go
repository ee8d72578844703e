package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRateLimitStore(client)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			result, err := store.Allow(ctx, "trip-lifecycle:settlement", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, int64(3), result.Limit)
			assert.Equal(t, 3-i, result.Remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		result, err := store.Allow(ctx, "trip-lifecycle:settlement", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, int64(0), result.Remaining)
	})

	t.Run("different callers are independent", func(t *testing.T) {
		result, err := store.Allow(ctx, "admin-1:deposits", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(4), result.Remaining)
	})

	t.Run("counter carries a TTL", func(t *testing.T) {
		_, err := store.Allow(ctx, "driver-9:go_online", 5, time.Minute)
		require.NoError(t, err)

		key, _ := windowKey("driver-9:go_online", now, time.Minute)
		ttl := mr.TTL(key)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute+time.Second)
	})

	t.Run("reset after window expires", func(t *testing.T) {
		key := "admin-2:deposits"
		_, err := store.Allow(ctx, key, 1, time.Minute)
		require.NoError(t, err)

		result, err := store.Allow(ctx, key, 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		mr.FastForward(61 * time.Second)

		result, err = store.Allow(ctx, key, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestRateLimitStore_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRateLimitStore(client).Allow(context.Background(), "driver-9:wallet", 10, time.Minute)
	assert.ErrorContains(t, err, "rate limit driver-9:wallet")
}

func TestWindowKey(t *testing.T) {
	now := time.Unix(1_700_000_030, 0)

	key, resetAt := windowKey("admin-1:deposits", now, time.Minute)
	assert.Equal(t, "ratelimit:admin-1:deposits:28333333", key)
	assert.Equal(t, int64(1_700_000_040), resetAt)

	key, resetAt = windowKey("x", now, 0)
	assert.Equal(t, "ratelimit:x:1700000030", key)
	assert.Equal(t, int64(1_700_000_031), resetAt)
}
