package redisad

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateStore shares fixed-window counters across API instances.
type RateStore struct{ c *redis.Client }

func NewRateStore(c *redis.Client) *RateStore { return &RateStore{c: c} }

// Hit increments key and starts its window on the first hit. A key left
// without an expiry (e.g. after a crash between INCR and PEXPIRE) gets one
// on the next hit.
func (s *RateStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := keyPrefix + "rl:" + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left <= 0 {
		if err := s.c.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return incr.Val(), left, nil
}
