// Package redisad backs the response cache and the shared rate limit store
// with Redis.
package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/domain"
)

const keyPrefix = "rh:"

// NewClient connects and pings so start-up fails fast on a bad address.
func NewClient(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return c, nil
}

type Cache struct{ c *redis.Client }

var _ domain.Cache = (*Cache)(nil)

func NewCache(c *redis.Client) *Cache { return &Cache{c: c} }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, keyPrefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, keyPrefix+key).Err()
}
