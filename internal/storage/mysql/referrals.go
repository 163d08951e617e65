package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

type referralRow struct {
	ID             string         `db:"id"`
	ClientID       string         `db:"client_id"`
	AccountID      string         `db:"account_id"`
	ReferredName   string         `db:"referred_name"`
	ReferredPhone  sql.NullString `db:"referred_phone"`
	ReferredEmail  sql.NullString `db:"referred_email"`
	ReferredNotes  sql.NullString `db:"referred_notes"`
	Status         string         `db:"status"`
	BecameClient   sql.NullBool   `db:"became_client"`
	BecameClientAt sql.NullTime   `db:"became_client_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r referralRow) toDomain() domain.Referral {
	return domain.Referral{
		ID:             r.ID,
		ClientID:       r.ClientID,
		AccountID:      r.AccountID,
		ReferredName:   r.ReferredName,
		ReferredPhone:  ptrNullStr(r.ReferredPhone),
		ReferredEmail:  ptrNullStr(r.ReferredEmail),
		ReferredNotes:  ptrNullStr(r.ReferredNotes),
		Status:         domain.ReferralStatus(r.Status),
		BecameClient:   ptrNullBool(r.BecameClient),
		BecameClientAt: ptrNullTime(r.BecameClientAt),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

func (r *Repo) CreateReferral(ctx context.Context, ref *domain.Referral) error {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.Status == "" {
		ref.Status = domain.ReferralNew
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx, insertReferralSQL,
		ref.ID, ref.ClientID, ref.AccountID, ref.ReferredName,
		valStr(ref.ReferredPhone), valStr(ref.ReferredEmail), valStr(ref.ReferredNotes),
		string(ref.Status), valBool(ref.BecameClient), valTime(ref.BecameClientAt),
		ref.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetReferral(ctx context.Context, id string) (domain.Referral, error) {
	var row referralRow
	if err := sqlx.GetContext(ctx, r.q, &row, selectReferralSQL+" WHERE id = ?", id); err != nil {
		return domain.Referral{}, notFound(err, "referral")
	}
	return row.toDomain(), nil
}

func (r *Repo) ListReferrals(ctx context.Context, accountID string) ([]domain.Referral, error) {
	var rows []referralRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		selectReferralSQL+" WHERE account_id = ? ORDER BY created_at DESC", accountID); err != nil {
		return nil, err
	}
	out := make([]domain.Referral, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) UpdateReferral(ctx context.Context, ref domain.Referral) error {
	_, err := r.q.ExecContext(ctx, updateReferralSQL,
		ref.ReferredName, valStr(ref.ReferredPhone), valStr(ref.ReferredEmail),
		valStr(ref.ReferredNotes), string(ref.Status), valBool(ref.BecameClient),
		valTime(ref.BecameClientAt), ref.ID,
	)
	return err
}
