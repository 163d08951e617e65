// Package restclient is the outbound JSON client shared by the places, whop
// and resend adapters.
package restclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_hero/internal/adapters/observability"
)

const maxAttempts = 4

var (
	ErrNotFound     = errors.New("remote: not found")
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrForbidden    = errors.New("remote: forbidden")
)

// StatusError is returned for non-retryable statuses without a sentinel.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Status, e.Body)
}

type Options struct {
	Timeout time.Duration
	RPS     int
	// Header is sent with every request.
	Header http.Header
}

type Client struct {
	service string
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	header  http.Header
}

// New returns a client for one remote service. service labels metrics.
func New(service, base string, o Options) *Client {
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	return &Client{
		service: service,
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: o.Timeout},
		rl:      rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		header:  o.Header,
	}
}

type Request struct {
	Method string
	Path   string
	// Endpoint labels metrics; defaults to Path.
	Endpoint string
	Query    url.Values
	Header   http.Header
	// Body is JSON-encoded when non-nil.
	Body any
	// NoRetry sends the request once. Set it for calls that must not be
	// replayed, such as redeeming a one-time code.
	NoRetry bool
}

// Do sends req and decodes a JSON response into out (which may be nil).
// Retries on 429 and transient 5xx, honoring Retry-After when provided,
// unless req.NoRetry is set.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", c.service, err)
		}
		payload = b
	}
	u := c.base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	attempts := maxAttempts
	if req.NoRetry {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		// build a fresh request each attempt
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		hr, err := http.NewRequestWithContext(ctx, req.Method, u, body)
		if err != nil {
			return err
		}
		for k, vs := range c.header {
			hr.Header[k] = vs
		}
		for k, vs := range req.Header {
			hr.Header[k] = vs
		}
		hr.Header.Set("Accept", "application/json")
		hr.Header.Set("User-Agent", "review-hero/1.0")
		if payload != nil {
			hr.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(hr)
		if err != nil {
			observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d", c.service, resp.StatusCode)
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
