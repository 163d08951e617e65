//go:build integration || !unit

package mysql_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/domain"
	mysqlrepo "review_hero/internal/storage/mysql"
)

func pstr(s string) *string { return &s }

// startMySQL runs an isolated MySQL and returns a migrated handle.
func startMySQL(t *testing.T) *sqlx.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=review_hero",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/review_hero?parseTime=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sqlx.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := mysqlrepo.Migrate(context.Background(), db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRepo_MySQL(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Migrations are idempotent.
	require.NoError(t, mysqlrepo.Migrate(ctx, db.DB))

	tpl := domain.IndustryTemplate{
		Slug: "plumber", Name: "Plumber", Category: "Home Services",
		CelebrationHeadline: "Thanks!", CelebrationBody: "body", ReviewAsk: "ask",
		GoogleHeadline: "gh", GoogleSubhead: "gs", ReferralHeadline: "rh", ReferralBody: "rb",
		Icon: pstr("🔧"), IsActive: true,
	}
	require.NoError(t, repo.UpsertTemplate(ctx, &tpl))
	firstID := tpl.ID
	tpl.Name = "Plumbing"
	tpl.ID = ""
	require.NoError(t, repo.UpsertTemplate(ctx, &tpl))
	assert.Equal(t, firstID, tpl.ID, "upsert by slug keeps the id")
	assert.Equal(t, "Plumbing", tpl.Name)

	acc := domain.NewAccount("Acme Plumbing", "owner@acme.test")
	acc.WhopUserID = pstr("user_1")
	acc.IndustryTemplateID = &tpl.ID
	require.NoError(t, repo.CreateAccount(ctx, &acc))

	dup := domain.NewAccount("Other", "x@y.test")
	dup.WhopUserID = pstr("user_1")
	assert.ErrorIs(t, repo.CreateAccount(ctx, &dup), domain.ErrConflict)

	got, err := repo.GetAccountByWhopUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, 50, got.MonthlyRequestLimit)

	got.ApplyPlan(domain.PlanGrowth)
	got.PrimaryColor = "#112233"
	require.NoError(t, repo.UpdateAccount(ctx, got))
	require.NoError(t, repo.IncrementUsage(ctx, acc.ID))
	require.NoError(t, repo.IncrementUsage(ctx, acc.ID))
	got, err = repo.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanGrowth, got.Plan)
	assert.Equal(t, 200, got.MonthlyRequestLimit)
	assert.Equal(t, 2, got.RequestsUsedThisMonth)

	_, err = repo.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Client lifecycle
	c := domain.Client{AccountID: acc.ID, Name: "Jane Doe", Email: pstr("jane@x.test")}
	require.NoError(t, repo.CreateClient(ctx, &c))
	assert.NotEmpty(t, c.Token)

	sentAt := time.Now().UTC().Add(-4 * 24 * time.Hour).Truncate(time.Millisecond)
	require.NoError(t, repo.TransitionClient(ctx, c.ID, domain.StatusSent, sentAt))
	require.NoError(t, repo.TransitionClient(ctx, c.ID, domain.StatusClicked, time.Now()))
	err = repo.TransitionClient(ctx, c.ID, domain.StatusSent, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	byToken, err := repo.GetClientByToken(ctx, c.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClicked, byToken.Status)
	require.NotNil(t, byToken.SentAt)
	assert.True(t, byToken.SentAt.Equal(sentAt))
	assert.NotNil(t, byToken.OpenedAt)

	cands, err := repo.ListNudgeCandidates(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Acme Plumbing", cands[0].BusinessName)
	require.NoError(t, repo.MarkNudged(ctx, c.ID, 1, time.Now()))
	assert.ErrorIs(t, repo.MarkNudged(ctx, c.ID, 1, time.Now()), domain.ErrConflict)
	cands, err = repo.ListNudgeCandidates(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, cands, "nudge 2 is not due until day 7")

	// Reviews: one per client.
	rv := domain.Review{ClientID: c.ID, AccountID: acc.ID, Rating: 2, WasIntercepted: true}
	require.NoError(t, repo.CreateReview(ctx, &rv))
	again := domain.Review{ClientID: c.ID, AccountID: acc.ID, Rating: 5}
	assert.ErrorIs(t, repo.CreateReview(ctx, &again), domain.ErrConflict)
	require.NoError(t, repo.ResolveIntercept(ctx, rv.ID, true, pstr("called back")))
	rv, err = repo.GetReviewByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, rv.InterceptResolved)
	assert.Equal(t, "called back", *rv.InterceptNotes)
	require.NoError(t, repo.TransitionClient(ctx, c.ID, domain.StatusReviewed, time.Now()))

	// Referrals
	ref := domain.Referral{ClientID: c.ID, AccountID: acc.ID, ReferredName: "Bob"}
	require.NoError(t, repo.CreateReferral(ctx, &ref))
	yes := true
	ref.Status = domain.ReferralConverted
	ref.BecameClient = &yes
	require.NoError(t, repo.UpdateReferral(ctx, ref))
	refs, err := repo.ListReferrals(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, domain.ReferralConverted, refs[0].Status)
	require.NotNil(t, refs[0].BecameClient)

	// Usage
	require.NoError(t, repo.RecordUsage(ctx, &domain.UsageEvent{AccountID: acc.ID, EventType: domain.UsageReview, AmountCents: 300}))
	require.NoError(t, repo.RecordUsage(ctx, &domain.UsageEvent{AccountID: acc.ID, EventType: domain.UsageReferral, AmountCents: 2500}))
	cents, err := repo.UnbilledCents(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2800, cents)
	n, err := repo.MarkBilled(ctx, acc.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	cents, err = repo.UnbilledCents(ctx, acc.ID)
	require.NoError(t, err)
	assert.Zero(t, cents)

	// Webhook ledger
	fresh, err := repo.RecordWebhook(ctx, "whop", "payment.succeeded:pay_1", "payment.succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, fresh)
	fresh, err = repo.RecordWebhook(ctx, "whop", "payment.succeeded:pay_1", "payment.succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, fresh)

	// Expiry
	old := domain.Client{AccountID: acc.ID, Name: "Old", Email: pstr("old@x.test")}
	past := time.Now().UTC().Add(-time.Hour)
	old.ExpiresAt = &past
	require.NoError(t, repo.CreateClient(ctx, &old))
	expired, err := repo.ExpireClients(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{acc.ID}, expired)

	// Transactions roll back on error.
	boom := errors.New("boom")
	err = repo.WithTx(ctx, func(s domain.Store) error {
		if err := s.IncrementUsage(ctx, acc.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = repo.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RequestsUsedThisMonth)
}
