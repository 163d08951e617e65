package places_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/adapters/places"
)

func TestTextSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("query") {
		case "gym":
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1","name":"Gym","user_ratings_total":12}]}`))
		case "nothing":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		}
	}))
	defer ts.Close()

	cl, err := places.New(ts.URL, "k", 100)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := cl.TextSearch(ctx, "gym")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0]["place_id"])

	got, err = cl.TextSearch(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = cl.TextSearch(ctx, "denied")
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := places.New("", "", 1)
	assert.Error(t, err)
}
