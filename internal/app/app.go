// Package app holds the use cases behind the HTTP routes and the CLI.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

// Clock returns the current time; services take one so tests can pin it.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

func dashboardKey(accountID string) string { return "dashboard:" + accountID }

// invalidateDashboard drops the cached dashboard after any write for the account.
func invalidateDashboard(ctx context.Context, cache domain.Cache, accountID string) {
	if cache == nil || accountID == "" {
		return
	}
	if err := cache.Del(ctx, dashboardKey(accountID)); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("dashboard cache invalidation failed")
	}
}

func ptr[T any](v T) *T { return &v }
