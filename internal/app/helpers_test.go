package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"review_hero/internal/app/apptest"
	"review_hero/internal/domain"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func seedAccount(t *testing.T, s *apptest.Store, mutate ...func(*domain.Account)) domain.Account {
	t.Helper()
	a := domain.NewAccount("Acme Plumbing Co", "owner@acme.test")
	for _, m := range mutate {
		m(&a)
	}
	require.NoError(t, s.CreateAccount(context.Background(), &a))
	return a
}

func seedClient(t *testing.T, s *apptest.Store, accountID string, status domain.ClientStatus) domain.Client {
	t.Helper()
	sent := fixedNow.Add(-time.Hour)
	c := domain.Client{
		AccountID: accountID,
		Name:      "Jane Doe",
		Email:     ptr("jane@x.test"),
		Status:    status,
		ExpiresAt: ptr(fixedNow.Add(domain.RequestLifetime)),
		CreatedAt: fixedNow.Add(-2 * time.Hour),
	}
	if status != domain.StatusPending {
		c.SentAt = &sent
	}
	require.NoError(t, s.CreateClient(context.Background(), &c))
	return c
}
