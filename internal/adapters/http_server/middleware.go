package httpserver

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/adapters/session"
	"review_hero/internal/ratelimit"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		observability.ObserveHTTP(routePattern(r), r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			l.Info().
				Str("route", routePattern(r)).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", clientIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// clientIP identifies the caller for logs and rate limits. The proxy headers
// are trusted in order; requests with none of them share "unknown".
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return "unknown"
}

// ---- Rate limiting ----

const tooManyRequests = "Too many requests. Please slow down."

// RateLimit counts each request against bucket. key derives the identifier
// from the request; nil uses the client IP. A nil limiter disables the check
// and store failures let the request through.
func RateLimit(l *ratelimit.Limiter, bucket string, key func(*http.Request) string) func(http.Handler) http.Handler {
	if key == nil {
		key = clientIP
	}
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), bucket, key(r))
			if err != nil {
				log.Warn().Err(err).Str("bucket", bucket).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				observability.ObserveRateLimited(bucket)
				writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", tooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---- Session ----

type ctxKey int

const sessionAccountKey ctxKey = iota

// Session puts the caller's account id on the context when a valid session
// cookie or bearer token is presented. It never rejects a request; handlers
// decide whether an account is required.
func Session(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := m.FromRequest(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					log.Debug().Err(err).Msg("ignoring invalid session")
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sessionAccountKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionAccount(ctx context.Context) string {
	id, _ := ctx.Value(sessionAccountKey).(string)
	return id
}
