package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

func (r *Repo) RecordUsage(ctx context.Context, e *domain.UsageEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx, insertUsageSQL,
		e.ID, e.AccountID, string(e.EventType), valStr(e.RelatedID),
		e.AmountCents, e.Billed, valTime(e.BilledAt), e.CreatedAt.UTC(),
	)
	return err
}

// MarkBilled settles every open usage event for the account.
func (r *Repo) MarkBilled(ctx context.Context, accountID string, at time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE usage_events SET billed = TRUE, billed_at = ? WHERE account_id = ? AND billed = FALSE`,
		at.UTC(), accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) UnbilledCents(ctx context.Context, accountID string) (int, error) {
	var cents int
	err := sqlx.GetContext(ctx, r.q, &cents,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM usage_events WHERE account_id = ? AND billed = FALSE`,
		accountID)
	return cents, err
}
