package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "review_hero"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limited_total", Help: "Requests rejected by a rate limit bucket."},
		[]string{"bucket"},
	)

	ReviewsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "reviews_submitted_total", Help: "Reviews submitted."},
		[]string{"outcome"}, // outcome: public|intercepted
	)
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "emails_sent_total", Help: "Emails handed to a mail transport."},
		[]string{"kind", "status"}, // status: ok|error
	)
	Referrals = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "referrals_total", Help: "Referrals submitted."},
	)
	Webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "webhooks_total", Help: "Billing webhooks received."},
		[]string{"type", "outcome"}, // outcome: processed|duplicate|rejected|error
	)
	NudgesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "nudge_sweep_results_total", Help: "Nudge sweep outcomes."},
		[]string{"result"}, // result: expired|sent|failed|skipped
	)
)

// Serve exposes h on its own listener at addr; an empty addr disables it.
func Serve(addr string, h http.Handler) *http.Server {
	if addr == "" {
		return nil // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents, RateLimited,
		ReviewsSubmitted, EmailsSent, Referrals, Webhooks, NudgesSent,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRateLimited(bucket string) { RateLimited.WithLabelValues(bucket).Inc() }

func ObserveReview(intercepted bool) {
	outcome := "public"
	if intercepted {
		outcome = "intercepted"
	}
	ReviewsSubmitted.WithLabelValues(outcome).Inc()
}

func ObserveEmail(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EmailsSent.WithLabelValues(kind, status).Inc()
}

func ObserveReferral() { Referrals.Inc() }

func ObserveWebhook(eventType, outcome string) {
	Webhooks.WithLabelValues(eventType, outcome).Inc()
}

func ObserveNudges(expired, sent, failed, skipped int64) {
	NudgesSent.WithLabelValues("expired").Add(float64(expired))
	NudgesSent.WithLabelValues("sent").Add(float64(sent))
	NudgesSent.WithLabelValues("failed").Add(float64(failed))
	NudgesSent.WithLabelValues("skipped").Add(float64(skipped))
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
