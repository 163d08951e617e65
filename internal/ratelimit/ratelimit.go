// Package ratelimit implements fixed-window request limits per bucket and
// caller identifier.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	PublicForms = "publicForms"
	PublicPages = "publicPages"
	API         = "api"
	Webhooks    = "webhooks"
)

type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules are requests per minute per identifier.
var DefaultRules = map[string]Rule{
	PublicForms: {Limit: 10, Window: time.Minute},
	PublicPages: {Limit: 30, Window: time.Minute},
	API:         {Limit: 60, Window: time.Minute},
	Webhooks:    {Limit: 100, Window: time.Minute},
}

// Store counts hits per key in fixed windows.
type Store interface {
	// Hit records one hit and returns the count so far in the current
	// window and the time until the window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	rules map[string]Rule
}

func New(store Store, rules map[string]Rule) *Limiter {
	if rules == nil {
		rules = DefaultRules
	}
	return &Limiter{store: store, rules: rules}
}

// Allow counts one request for id in bucket. Buckets never share counters.
func (l *Limiter) Allow(ctx context.Context, bucket, id string) (Decision, error) {
	rule, ok := l.rules[bucket]
	if !ok {
		return Decision{}, fmt.Errorf("unknown rate limit bucket %q", bucket)
	}
	if id == "" {
		id = "unknown"
	}
	n, reset, err := l.store.Hit(ctx, bucket+":"+id, rule.Window)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Limit: rule.Limit, Remaining: max(rule.Limit-int(n), 0)}
	if n > int64(rule.Limit) {
		d.RetryAfter = reset
		return d, nil
	}
	d.Allowed = true
	return d, nil
}
