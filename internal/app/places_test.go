package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/app"
	"review_hero/internal/app/apptest"
	"review_hero/internal/domain"
)

func TestPlacesSearch_MockWithoutClient(t *testing.T) {
	out, err := app.NewPlacesService(nil, nil, time.Hour).Search(context.Background(), " Joe's Gym ")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Joe's Gym", out[0].Name)
	assert.Equal(t, "Joe's Gym - Downtown", out[1].Name)
}

func TestPlacesSearch_MapsAndCaches(t *testing.T) {
	client := &apptest.Places{Results: []map[string]any{
		{"place_id": "p1", "name": "One", "formatted_address": "1 St", "rating": 4.5, "user_ratings_total": float64(10)},
		{"name": "no id"},
		{"place_id": "p2", "name": "Two"},
		{"place_id": "p3", "name": "Three"},
		{"place_id": "p4", "name": "Four"},
		{"place_id": "p5", "name": "Five"},
		{"place_id": "p6", "name": "Six"},
	}}
	cache := apptest.NewCache()
	svc := app.NewPlacesService(client, cache, time.Hour)
	ctx := context.Background()

	out, err := svc.Search(ctx, "Gym")
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, "p1", out[0].PlaceID)
	assert.Equal(t, 4.5, *out[0].Rating)
	assert.Equal(t, 10, *out[0].ReviewCount)
	assert.Equal(t, "p5", out[4].PlaceID)
	assert.True(t, cache.Has("places:gym"))

	again, err := svc.Search(ctx, "gym")
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, 1, client.Calls)
}

func TestPlacesSearch_Errors(t *testing.T) {
	_, err := app.NewPlacesService(nil, nil, 0).Search(context.Background(), "  ")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = app.NewPlacesService(&apptest.Places{Err: errors.New("quota")}, nil, 0).Search(context.Background(), "x")
	assert.ErrorContains(t, err, "quota")
}
