// internal/common/database/redis.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"counsel-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by GetJSON when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetJSON decodes the cached value at key into dst.
func (c *RedisClient) GetJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON stores v as JSON with the given TTL.
func (c *RedisClient) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}
