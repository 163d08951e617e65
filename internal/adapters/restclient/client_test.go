package restclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"review_hero/internal/adapters/restclient"
)

func TestClient_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 123.0})
		}
	}))
	defer ts.Close()

	cl := restclient.New("test", ts.URL, restclient.Options{RPS: 100}) // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var got map[string]any
	if err := cl.Do(ctx, restclient.Request{Method: http.MethodGet, Path: "/things/123"}, &got); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	id, ok := got["id"].(float64)
	if !ok || int(id) != 123 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_NoRetrySendsOnce(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cl := restclient.New("test", ts.URL, restclient.Options{RPS: 100})
	err := cl.Do(context.Background(), restclient.Request{Method: http.MethodPost, Path: "/redeem", Body: map[string]string{"code": "c"}, NoRetry: true}, nil)
	if err == nil {
		t.Fatal("expected an error for 502")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly 1 call, got %d", n)
	}
}

func TestClient_SentinelStatuses(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:     restclient.ErrNotFound,
		http.StatusUnauthorized: restclient.ErrUnauthorized,
		http.StatusForbidden:    restclient.ErrForbidden,
	}
	for status, want := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		cl := restclient.New("test", ts.URL, restclient.Options{RPS: 100})
		err := cl.Do(context.Background(), restclient.Request{Method: http.MethodGet, Path: "/x"}, nil)
		ts.Close()
		if !errors.Is(err, want) {
			t.Fatalf("status %d: got %v, want %v", status, err, want)
		}
	}
}

func TestClient_PostsJSONWithHeaders(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotKey, gotType, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	cl := restclient.New("test", ts.URL+"/", restclient.Options{
		RPS:    100,
		Header: http.Header{"Authorization": {"Bearer k"}},
	})
	var out struct{ OK bool }
	err := cl.Do(context.Background(), restclient.Request{
		Method: http.MethodPost,
		Path:   "/emails",
		Query:  url.Values{"q": {"a b"}},
		Header: http.Header{"Idempotency-Key": {"abc"}},
		Body:   map[string]string{"to": "x@y.test"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.OK || gotAuth != "Bearer k" || gotKey != "abc" || gotType != "application/json" || gotQuery != "a b" {
		t.Fatalf("unexpected request: auth=%q key=%q type=%q q=%q out=%+v", gotAuth, gotKey, gotType, gotQuery, out)
	}
	if gotBody["to"] != "x@y.test" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

func TestClient_BadRequestReturnsStatusError(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "invalid from address", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	cl := restclient.New("test", ts.URL, restclient.Options{RPS: 100})
	err := cl.Do(context.Background(), restclient.Request{Method: http.MethodPost, Path: "/emails", Body: map[string]int{}}, nil)
	var se *restclient.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnprocessableEntity || se.Body != "invalid from address" {
		t.Fatalf("unexpected err: %v", err)
	}
	if hits != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", hits)
	}
}

func TestClient_ContextCancelStopsRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl := restclient.New("test", ts.URL, restclient.Options{RPS: 100})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := cl.Do(ctx, restclient.Request{Method: http.MethodGet, Path: "/slow"}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("Retry-After wait ignored context")
	}
}
