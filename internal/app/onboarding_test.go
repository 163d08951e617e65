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

func newOnboarding(store *apptest.Store, mailer domain.Mailer) *app.OnboardingService {
	reqs := app.NewRequestService(store, mailer, nil, "https://app.test", clock)
	return app.NewOnboardingService(store, nil, reqs, clock)
}

func TestSaveProfile_CreatesThenUpdates(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	tpl := domain.IndustryTemplate{Slug: "plumber", Name: "Plumber", Category: "Home Services", IsActive: true}
	require.NoError(t, store.UpsertTemplate(ctx, &tpl))
	svc := newOnboarding(store, nil)

	id, err := svc.SaveProfile(ctx, "", app.ProfileInput{
		BusinessName: "Pipes R Us", Email: "pipes@x.test", Industry: ptr("plumber"), Phone: ptr("+1 555 0100"),
	})
	require.NoError(t, err)
	acc, err := store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, deref(acc.IndustryTemplateID))
	assert.Equal(t, domain.PlanStarter, acc.Plan)
	assert.Equal(t, "+1 555 0100", deref(acc.Phone))

	same, err := svc.SaveProfile(ctx, id, app.ProfileInput{
		BusinessName: "Pipes R Us Ltd", Email: "pipes@x.test", Industry: ptr("unknown-slug"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, same)
	acc, _ = store.GetAccount(ctx, id)
	assert.Equal(t, "Pipes R Us Ltd", acc.BusinessName)
	assert.Equal(t, tpl.ID, deref(acc.IndustryTemplateID), "unknown slugs keep the current template")
	assert.Len(t, store.Accounts, 1)

	_, err = svc.SaveProfile(ctx, "", app.ProfileInput{BusinessName: "", Email: "x"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestSaveGooglePlaceAndComplete(t *testing.T) {
	store := apptest.NewStore()
	acc := seedAccount(t, store)
	svc := newOnboarding(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.SaveGooglePlace(ctx, acc.ID, app.GooglePlaceInput{GooglePlaceID: "ChIJxyz"}))
	require.NoError(t, svc.Complete(ctx, acc.ID))
	got, _ := store.GetAccount(ctx, acc.ID)
	assert.Equal(t, "ChIJxyz", deref(got.GooglePlaceID))
	assert.Equal(t, fixedNow, *got.OnboardingCompletedAt)

	assert.ErrorIs(t, svc.Complete(ctx, "missing"), domain.ErrNotFound)
}

func TestDemo_SendsToOwner(t *testing.T) {
	store := apptest.NewStore()
	mailer := &apptest.Mailer{}
	acc := seedAccount(t, store, func(a *domain.Account) { a.RequestsUsedThisMonth = 50 })
	ctx := context.Background()

	res, err := newOnboarding(store, mailer).Demo(ctx, acc.ID, app.DemoInput{Email: "me@acme.test"})
	require.NoError(t, err, "demo sends ignore the monthly limit")
	assert.Equal(t, "Demo email sent", res.Message)
	require.Equal(t, 1, mailer.Count())
	assert.Equal(t, domain.EmailDemo, mailer.Sent[0].Kind)
	assert.Equal(t, "me@acme.test", mailer.Sent[0].To)

	res, err = newOnboarding(store, nil).Demo(ctx, acc.ID, app.DemoInput{Email: "me@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Demo link created", res.Message)
	assert.Contains(t, res.ReviewLink, "https://app.test/r/")
}
