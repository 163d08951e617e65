package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/app"
	"review_hero/internal/app/apptest"
	"review_hero/internal/domain"
)

func TestBuildDashboard_Stats(t *testing.T) {
	acc := domain.NewAccount("Acme", "a@x.test")
	acc.RequestsUsedThisMonth = 3
	lastMonth := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	clients := []domain.Client{
		{ID: "c4", Name: "Dee", Status: domain.StatusReviewed, CreatedAt: thisMonth, SentAt: &thisMonth, OpenedAt: &thisMonth, ReviewedAt: ptr(thisMonth.Add(time.Hour))},
		{ID: "c3", Name: "Cat", Status: domain.StatusClicked, CreatedAt: thisMonth, SentAt: &thisMonth, OpenedAt: ptr(thisMonth.Add(time.Minute))},
		{ID: "c2", Name: "Bob", Status: domain.StatusSent, CreatedAt: lastMonth, SentAt: &lastMonth},
		{ID: "c1", Name: "Al", Status: domain.StatusPending, CreatedAt: lastMonth},
	}
	reviews := []domain.Review{
		{ID: "r2", ClientID: "c4", Rating: 5, CreatedAt: thisMonth},
		{ID: "r1", ClientID: "gone", Rating: 2, WasIntercepted: true, CreatedAt: lastMonth},
	}

	d := app.BuildDashboard(fixedNow, acc, clients, reviews, 1, 2800)
	st := d.Stats
	assert.Equal(t, 3, st.TotalSent)
	assert.Equal(t, 2, st.TotalReviewed)
	assert.Equal(t, 2, st.TotalClicked)
	assert.Equal(t, 1, st.ReviewsThisMonth)
	assert.Equal(t, 2, st.RequestsThisMonth)
	assert.Equal(t, 67, st.ConversionRate)
	assert.Equal(t, "3.5", st.AvgRating)
	assert.Equal(t, 1, st.InterceptedCount)
	assert.Equal(t, 1, st.ReferralsCount)
	assert.Equal(t, 3, st.RequestsUsed)
	assert.Equal(t, 50, st.RequestLimit)
	assert.Equal(t, 2800, st.UnbilledCents)

	require.Len(t, d.Reviews, 2)
	assert.Equal(t, "Dee", d.Reviews[0].ClientName)
	assert.Equal(t, "Unknown", d.Reviews[1].ClientName)
	assert.Len(t, d.Requests, 4)

	require.Len(t, d.Activities, 4)
	assert.Equal(t, "c4-reviewed", d.Activities[0].ID)
	assert.Equal(t, domain.ActivityClicked, d.Activities[1].Type)
	assert.Equal(t, domain.ActivitySent, d.Activities[2].Type)
	assert.Equal(t, domain.ActivityCreated, d.Activities[3].Type)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := app.BuildDashboard(fixedNow, domain.NewAccount("A", "a@x.test"), nil, nil, 0, 0)
	assert.Equal(t, "0", d.Stats.AvgRating)
	assert.Zero(t, d.Stats.ConversionRate)
	assert.Empty(t, d.Activities)
}

func TestBuildDashboard_ActivityWindow(t *testing.T) {
	var clients []domain.Client
	for i := 0; i < 25; i++ {
		clients = append(clients, domain.Client{ID: string(rune('a' + i)), CreatedAt: fixedNow.Add(-time.Duration(i) * time.Minute)})
	}
	d := app.BuildDashboard(fixedNow, domain.NewAccount("A", "a@x.test"), clients, nil, 0, 0)
	require.Len(t, d.Activities, 10)
	assert.Equal(t, "a-created", d.Activities[0].ID)
}

func TestDashboard_CacheMissThenHitThenInvalidate(t *testing.T) {
	store := apptest.NewStore()
	cache := apptest.NewCache()
	acc := seedAccount(t, store)
	seedClient(t, store, acc.ID, domain.StatusSent)
	svc := app.NewDashboardService(store, cache, 10*time.Minute, clock)
	ctx := context.Background()

	d, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Stats.TotalSent)
	assert.True(t, cache.Has("dashboard:"+acc.ID))

	// A new client is invisible until the cache entry goes.
	seedClient(t, store, acc.ID, domain.StatusSent)
	d, err = svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Stats.TotalSent)

	svc.Invalidate(ctx, acc.ID)
	d, err = svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Stats.TotalSent)
}

func TestDashboard_UnknownAccount(t *testing.T) {
	svc := app.NewDashboardService(apptest.NewStore(), nil, time.Minute, clock)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
