package apptest

import (
	"context"
	"encoding/json"
	"sync"

	"review_hero/internal/domain"
)

// Cache stores JSON like the Redis cache does.
type Cache struct {
	mu    sync.Mutex
	Items map[string][]byte
}

func NewCache() *Cache { return &Cache{Items: map[string][]byte{}} }

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.Items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items[key] = b
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Items, key)
	return nil
}

func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Items[key]
	return ok
}

// Mailer records sent mail; Err makes every send fail.
type Mailer struct {
	mu   sync.Mutex
	Sent []domain.Email
	Err  error
}

func (m *Mailer) Send(ctx context.Context, e domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, e)
	return nil
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

type Places struct {
	Results []map[string]any
	Err     error
	Calls   int
}

func (p *Places) TextSearch(ctx context.Context, query string) ([]map[string]any, error) {
	p.Calls++
	return p.Results, p.Err
}

type Whop struct {
	Token     map[string]any
	User      map[string]any
	ErrToken  error
	Exchanges int
}

func (w *Whop) AuthURL(state string) string { return "https://whop.test/oauth?state=" + state }

func (w *Whop) ExchangeCode(ctx context.Context, code string) (map[string]any, error) {
	w.Exchanges++
	return w.Token, w.ErrToken
}

func (w *Whop) Me(ctx context.Context, accessToken string) (map[string]any, error) {
	return w.User, nil
}
