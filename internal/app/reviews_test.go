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

var defaultCopy = domain.IndustryTemplate{
	CelebrationHeadline: "Thank you for your business!",
	ReviewAsk:           "default ask",
	GoogleHeadline:      "Share your experience",
	ReferralHeadline:    "default referral",
}

func TestClientView_ResolvesCopyAndMarksClicked(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	tpl := domain.IndustryTemplate{Slug: "gym", Name: "Gym", Category: "Health", CelebrationHeadline: "Gym headline", ReviewAsk: "Gym ask", GoogleHeadline: "Gym google", IsActive: true}
	require.NoError(t, store.UpsertTemplate(ctx, &tpl))
	acc := seedAccount(t, store, func(a *domain.Account) {
		a.IndustryTemplateID = &tpl.ID
		a.Copy.ReviewAsk = ptr("Custom ask")
		a.PrimaryColor = ""
	})
	c := seedClient(t, store, acc.ID, domain.StatusSent)
	svc := app.NewReviewService(store, nil, defaultCopy, clock)

	v, err := svc.ClientView(ctx, c.Token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, v.ID)
	assert.Equal(t, "Gym headline", v.Template.CelebrationHeadline)
	assert.Equal(t, "Custom ask", v.Template.ReviewAsk)
	assert.Equal(t, "Gym google", v.Template.GoogleHeadline)
	assert.Equal(t, domain.DefaultPrimaryColor, v.Account.PrimaryColor)
	assert.Equal(t, domain.StatusClicked, v.Status)

	got, _ := store.GetClient(ctx, c.ID)
	assert.Equal(t, domain.StatusClicked, got.Status)
	require.NotNil(t, got.OpenedAt)
	assert.Equal(t, fixedNow, *got.OpenedAt)

	// Opening again leaves the first timestamp alone.
	_, err = svc.ClientView(ctx, c.Token)
	require.NoError(t, err)
	got, _ = store.GetClient(ctx, c.ID)
	assert.Equal(t, fixedNow, *got.OpenedAt)
}

func TestClientView_DefaultCopyWithoutTemplate(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusReviewed)
	svc := app.NewReviewService(store, nil, defaultCopy, clock)

	v, err := svc.ClientView(context.Background(), c.Token)
	require.NoError(t, err)
	assert.Equal(t, "default ask", v.Template.ReviewAsk)
	assert.Equal(t, domain.StatusReviewed, v.Status, "reviewed clients never move back to clicked")
}

func TestClientView_Errors(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusSent)
	past := fixedNow.Add(-time.Minute)
	c.ExpiresAt = &past
	store.Clients[c.ID] = c
	svc := app.NewReviewService(store, nil, defaultCopy, clock)
	ctx := context.Background()

	_, err := svc.ClientView(ctx, "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.ClientView(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ClientView(ctx, c.Token)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestSubmit_HighRatingIsPublicAndBilled(t *testing.T) {
	store := apptest.NewStore()
	cache := apptest.NewCache()
	acc := seedAccount(t, store, func(a *domain.Account) { a.GooglePlaceID = ptr("ChIJ abc") })
	c := seedClient(t, store, acc.ID, domain.StatusClicked)
	svc := app.NewReviewService(store, cache, defaultCopy, clock)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "dashboard:"+acc.ID, 1, 60))

	res, err := svc.Submit(ctx, app.SubmitReviewInput{ClientID: c.ID, Rating: 5, Text: ptr("Great"), PostedToGoogle: true})
	require.NoError(t, err)
	assert.False(t, res.WasIntercepted)
	assert.Equal(t, "https://search.google.com/local/writereview?placeid=ChIJ+abc", deref(res.GoogleReviewURL))

	got, _ := store.GetClient(ctx, c.ID)
	assert.Equal(t, domain.StatusReviewed, got.Status)
	a, _ := store.GetAccount(ctx, acc.ID)
	assert.Equal(t, 1, a.RequestsUsedThisMonth)
	cents, _ := store.UnbilledCents(ctx, acc.ID)
	assert.Equal(t, 300, cents)
	assert.False(t, cache.Has("dashboard:"+acc.ID))
}

func TestSubmit_LowRatingAlwaysIntercepted(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store, func(a *domain.Account) { a.GooglePlaceID = ptr("place") })
	c := seedClient(t, store, acc.ID, domain.StatusSent)
	svc := app.NewReviewService(store, nil, defaultCopy, clock)
	ctx := context.Background()

	res, err := svc.Submit(ctx, app.SubmitReviewInput{ClientID: c.ID, Rating: 3, PostedToGoogle: true, RequestCall: true})
	require.NoError(t, err)
	assert.True(t, res.WasIntercepted)
	assert.Nil(t, res.GoogleReviewURL)

	rv, err := store.GetReview(ctx, res.ReviewID)
	require.NoError(t, err)
	assert.False(t, rv.PostedToGoogle)
	assert.True(t, rv.InterceptCallRequested)

	a, _ := store.GetAccount(ctx, acc.ID)
	assert.Zero(t, a.RequestsUsedThisMonth)
	cents, _ := store.UnbilledCents(ctx, acc.ID)
	assert.Zero(t, cents)
}

func TestSubmit_Errors(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusSent)
	svc := app.NewReviewService(store, nil, defaultCopy, clock)
	ctx := context.Background()

	_, err := svc.Submit(ctx, app.SubmitReviewInput{ClientID: c.ID, Rating: 6})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rating", verr.Fields[0].Path)

	_, err = svc.Submit(ctx, app.SubmitReviewInput{ClientID: "7d1f6b5e-3c2a-4b8e-9f10-2a3b4c5d6e7f", Rating: 4})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Submit(ctx, app.SubmitReviewInput{ClientID: c.ID, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, app.SubmitReviewInput{ClientID: c.ID, Rating: 4})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestResolveIntercept(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	other := seedAccount(t, store)
	low := seedClient(t, store, acc.ID, domain.StatusSent)
	high := seedClient(t, store, acc.ID, domain.StatusSent)
	svc := app.NewReviewService(store, nil, defaultCopy, clock)
	ctx := context.Background()

	lowRes, err := svc.Submit(ctx, app.SubmitReviewInput{ClientID: low.ID, Rating: 1})
	require.NoError(t, err)
	highRes, err := svc.Submit(ctx, app.SubmitReviewInput{ClientID: high.ID, Rating: 5})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResolveIntercept(ctx, other.ID, lowRes.ReviewID, app.ResolveInterceptInput{Resolved: true}), domain.ErrNotFound)
	assert.ErrorIs(t, svc.ResolveIntercept(ctx, acc.ID, highRes.ReviewID, app.ResolveInterceptInput{Resolved: true}), domain.ErrConflict)
	require.NoError(t, svc.ResolveIntercept(ctx, acc.ID, lowRes.ReviewID, app.ResolveInterceptInput{Resolved: true, Notes: ptr("Called, refunded")}))

	rv, _ := store.GetReview(ctx, lowRes.ReviewID)
	assert.True(t, rv.InterceptResolved)
	assert.Equal(t, "Called, refunded", deref(rv.InterceptNotes))
}
