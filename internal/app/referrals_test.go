package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/app"
	"review_hero/internal/app/apptest"
	"review_hero/internal/domain"
)

func TestSubmitReferral(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusReviewed)
	svc := app.NewReferralService(store, nil, clock)
	ctx := context.Background()

	res, err := svc.Submit(ctx, app.SubmitReferralInput{
		ClientID:      c.ID,
		ReferredName:  "Bob Smith",
		ReferredPhone: ptr("(555) 123-4567"),
		ReferredEmail: ptr(""),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	ref, err := store.GetReferral(ctx, res.ReferralID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, ref.AccountID)
	assert.Equal(t, domain.ReferralNew, ref.Status)
	assert.Nil(t, ref.ReferredEmail)
	assert.Equal(t, "(555) 123-4567", deref(ref.ReferredPhone))

	got, _ := store.GetClient(ctx, c.ID)
	assert.Equal(t, domain.StatusReferred, got.Status)
	cents, _ := store.UnbilledCents(ctx, acc.ID)
	assert.Equal(t, domain.ReferralPriceCents, cents)

	// A referred client may name more people.
	_, err = svc.Submit(ctx, app.SubmitReferralInput{ClientID: c.ID, ReferredName: "Carol"})
	require.NoError(t, err)
	list, err := svc.List(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSubmitReferral_Rejected(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusClicked)
	svc := app.NewReferralService(store, nil, clock)
	ctx := context.Background()

	_, err := svc.Submit(ctx, app.SubmitReferralInput{ClientID: c.ID, ReferredName: "Bob"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Submit(ctx, app.SubmitReferralInput{ClientID: c.ID, ReferredName: "", ReferredEmail: ptr("nope"), ReferredPhone: ptr("call me")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestUpdateReferralStatus(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	other := seedAccount(t, store)
	c := seedClient(t, store, acc.ID, domain.StatusReviewed)
	svc := app.NewReferralService(store, nil, clock)
	ctx := context.Background()

	res, err := svc.Submit(ctx, app.SubmitReferralInput{ClientID: c.ID, ReferredName: "Bob"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, other.ID, res.ReferralID, app.UpdateReferralInput{Status: domain.ReferralContacted})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, acc.ID, res.ReferralID, app.UpdateReferralInput{Status: "won"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	ref, err := svc.UpdateStatus(ctx, acc.ID, res.ReferralID, app.UpdateReferralInput{Status: domain.ReferralConverted})
	require.NoError(t, err)
	require.NotNil(t, ref.BecameClient)
	assert.True(t, *ref.BecameClient)
	assert.Equal(t, fixedNow, *ref.BecameClientAt)

	ref, err = svc.UpdateStatus(ctx, acc.ID, res.ReferralID, app.UpdateReferralInput{Status: domain.ReferralLost})
	require.NoError(t, err)
	assert.False(t, *ref.BecameClient)
}
