package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/domain"
)

var sample = domain.Email{
	Kind:    domain.EmailReviewRequest,
	To:      "client@x.test",
	ReplyTo: "owner@x.test",
	Subject: "Quick feedback for Acme?",
	HTML:    "<p>Hi</p>",
	Text:    "Hi",
}

func TestResend_Send(t *testing.T) {
	var got resendRequest
	var keys []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer ts.Close()

	r, err := NewResend(ts.URL, "re_key", "Review Hero <hello@x.test>", 100)
	require.NoError(t, err)
	require.NoError(t, r.Send(context.Background(), sample))
	require.NoError(t, r.Send(context.Background(), sample))

	assert.Equal(t, []string{"client@x.test"}, got.To)
	assert.Equal(t, "owner@x.test", got.ReplyTo)
	assert.Equal(t, "Review Hero <hello@x.test>", got.From)
	assert.Equal(t, []tag{{Name: "kind", Value: "review_request"}}, got.Tags)
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.NotEqual(t, keys[0], keys[1])
}

func TestResend_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"domain not verified"}`, http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	r, err := NewResend(ts.URL, "k", "a@x.test", 100)
	require.NoError(t, err)
	assert.ErrorContains(t, r.Send(context.Background(), sample), "domain not verified")

	_, err = NewResend("", "", "a@x.test", 1)
	assert.Error(t, err)
}

func TestBuildMsg(t *testing.T) {
	m, err := buildMsg("hello@x.test", sample)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: Quick feedback for Acme?")
	assert.Regexp(t, `Reply-To: <?owner@x\.test>?`, out)
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "X-Review-Hero-Kind: review_request")

	_, err = buildMsg("hello@x.test", domain.Email{To: "not an address"})
	assert.Error(t, err)
}

type stubMailer struct{ err error }

func (s stubMailer) Send(context.Context, domain.Email) error { return s.err }

func TestMetered_CountsOutcomes(t *testing.T) {
	ok := observability.EmailsSent.WithLabelValues("nudge", "ok")
	bad := observability.EmailsSent.WithLabelValues("nudge", "error")
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	e := domain.Email{Kind: domain.EmailNudge}
	require.NoError(t, Metered(stubMailer{}, "test").Send(context.Background(), e))
	require.Error(t, Metered(stubMailer{err: errors.New("x")}, "test").Send(context.Background(), e))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, badBefore+1, testutil.ToFloat64(bad))
}
