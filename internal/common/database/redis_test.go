// internal/common/database/redis_test.go
package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	ctx := context.Background()

	type cached struct {
		Status string `json:"status"`
		Score  int    `json:"score"`
	}

	var out cached
	assert.ErrorIs(t, c.GetJSON(ctx, "lead:score:X", &out), ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "lead:score:X", cached{Status: "HOT", Score: 90}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, "lead:score:X", &out))
	assert.Equal(t, cached{Status: "HOT", Score: 90}, out)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.GetJSON(ctx, "lead:score:X", &out), ErrCacheMiss)

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Del(ctx, "missing"))
}
