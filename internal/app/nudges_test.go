package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"review_hero/internal/app"
	"review_hero/internal/app/apptest"
	"review_hero/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sentDaysAgo(t *testing.T, s *apptest.Store, accountID string, days int) domain.Client {
	t.Helper()
	c := seedClient(t, s, accountID, domain.StatusSent)
	at := fixedNow.Add(-time.Duration(days) * 24 * time.Hour)
	c.SentAt = &at
	c.ExpiresAt = ptr(at.Add(domain.RequestLifetime))
	s.Clients[c.ID] = c
	return c
}

func TestSweep_SendsDueNudges(t *testing.T) {
	store := apptest.NewStore()
	mailer := &apptest.Mailer{}
	acc := seedAccount(t, store)
	day1 := sentDaysAgo(t, store, acc.ID, 1)
	day3 := sentDaysAgo(t, store, acc.ID, 3)
	day8 := sentDaysAgo(t, store, acc.ID, 8)
	old := sentDaysAgo(t, store, acc.ID, 22)

	svc := app.NewNudgeService(store, mailer, nil, "https://app.test", 2, 10, clock)
	rep, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, rep.Expired)
	assert.Equal(t, 2, rep.Candidates)
	assert.EqualValues(t, 2, rep.Sent)
	assert.Zero(t, rep.Failed)
	assert.Equal(t, 2, mailer.Count())
	for _, m := range mailer.Sent {
		assert.Equal(t, domain.EmailNudge, m.Kind)
		assert.Equal(t, "Re: Quick feedback for Acme?", m.Subject)
		assert.Contains(t, m.Text, "https://app.test/r/")
	}

	assert.Nil(t, store.Clients[day1.ID].Nudge1SentAt)
	assert.NotNil(t, store.Clients[day3.ID].Nudge1SentAt)
	assert.NotNil(t, store.Clients[day8.ID].Nudge1SentAt, "the first overdue nudge goes out first")
	assert.Nil(t, store.Clients[day8.ID].Nudge2SentAt)
	assert.Equal(t, domain.StatusExpired, store.Clients[old.ID].Status)

	// The day 8 client is still owed its day 7 reminder.
	rep, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Candidates)
	assert.NotNil(t, store.Clients[day8.ID].Nudge2SentAt)

	rep, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Candidates)
	assert.Equal(t, 3, mailer.Count())
}

func TestSweep_SkipsOptedOutAndInactive(t *testing.T) {
	store := apptest.NewStore()
	mailer := &apptest.Mailer{}
	off := seedAccount(t, store, func(a *domain.Account) { a.AutoNudgesEnabled = false })
	inactive := seedAccount(t, store, func(a *domain.Account) { a.MembershipActive = false })
	sentDaysAgo(t, store, off.ID, 4)
	sentDaysAgo(t, store, inactive.ID, 4)

	rep, err := app.NewNudgeService(store, mailer, nil, "http://x", 1, 10, clock).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Candidates)
	assert.Zero(t, mailer.Count())
}

func TestSweep_SendFailureCounts(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := sentDaysAgo(t, store, acc.ID, 3)

	rep, err := app.NewNudgeService(store, &apptest.Mailer{Err: errors.New("boom")}, nil, "http://x", 1, 10, clock).Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.Failed)
	// The stage stays claimed so the reminder is not retried.
	assert.NotNil(t, store.Clients[c.ID].Nudge1SentAt)
}

func TestSweep_NoMailerOnlyExpires(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	sentDaysAgo(t, store, acc.ID, 3)
	sentDaysAgo(t, store, acc.ID, 30)

	rep, err := app.NewNudgeService(store, nil, nil, "http://x", 1, 10, clock).Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.Expired)
	assert.Zero(t, rep.Candidates)
}

func TestSweep_ExpiryEvictsDashboard(t *testing.T) {
	store := apptest.NewStore()
	cache := apptest.NewCache()
	stale := seedAccount(t, store)
	fresh := seedAccount(t, store)
	c := sentDaysAgo(t, store, stale.ID, 30)
	sentDaysAgo(t, store, fresh.ID, 1)
	ctx := context.Background()

	dash := app.NewDashboardService(store, cache, 10*time.Minute, clock)
	before, err := dash.Get(ctx, stale.ID)
	require.NoError(t, err)
	require.Len(t, before.Requests, 1)
	assert.Equal(t, domain.StatusSent, before.Requests[0].Status)
	_, err = dash.Get(ctx, fresh.ID)
	require.NoError(t, err)
	require.True(t, cache.Has("dashboard:"+stale.ID))

	rep, err := app.NewNudgeService(store, nil, cache, "http://x", 1, 10, clock).Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.Expired)
	assert.Equal(t, domain.StatusExpired, store.Clients[c.ID].Status)
	assert.False(t, cache.Has("dashboard:"+stale.ID))
	assert.True(t, cache.Has("dashboard:"+fresh.ID), "other accounts keep their cache")

	after, err := dash.Get(ctx, stale.ID)
	require.NoError(t, err)
	require.Len(t, after.Requests, 1)
	assert.Equal(t, domain.StatusExpired, after.Requests[0].Status)
}

func TestNudgeRun_StopsOnCancel(t *testing.T) {
	store := apptest.NewStore()
	svc := app.NewNudgeService(store, &apptest.Mailer{}, nil, "http://x", 1, 10, clock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweep_ReportsToHook(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	sentDaysAgo(t, store, acc.ID, 3)

	svc := app.NewNudgeService(store, &apptest.Mailer{}, nil, "http://x", 1, 10, clock)
	var got []app.NudgeReport
	svc.OnSweep(func(r app.NudgeReport) { got = append(got, r) })
	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].Sent)
}
