package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

type reviewRow struct {
	ID                     string         `db:"id"`
	ClientID               string         `db:"client_id"`
	AccountID              string         `db:"account_id"`
	Rating                 int            `db:"rating"`
	Text                   sql.NullString `db:"text"`
	PhotoURL               sql.NullString `db:"photo_url"`
	VideoURL               sql.NullString `db:"video_url"`
	PostedToGoogle         bool           `db:"posted_to_google"`
	GoogleReviewURL        sql.NullString `db:"google_review_url"`
	WasIntercepted         bool           `db:"was_intercepted"`
	InterceptCallRequested bool           `db:"intercept_call_requested"`
	InterceptResolved      bool           `db:"intercept_resolved"`
	InterceptNotes         sql.NullString `db:"intercept_notes"`
	CreatedAt              time.Time      `db:"created_at"`
}

func (r reviewRow) toDomain() domain.Review {
	return domain.Review{
		ID:                     r.ID,
		ClientID:               r.ClientID,
		AccountID:              r.AccountID,
		Rating:                 r.Rating,
		Text:                   ptrNullStr(r.Text),
		PhotoURL:               ptrNullStr(r.PhotoURL),
		VideoURL:               ptrNullStr(r.VideoURL),
		PostedToGoogle:         r.PostedToGoogle,
		GoogleReviewURL:        ptrNullStr(r.GoogleReviewURL),
		WasIntercepted:         r.WasIntercepted,
		InterceptCallRequested: r.InterceptCallRequested,
		InterceptResolved:      r.InterceptResolved,
		InterceptNotes:         ptrNullStr(r.InterceptNotes),
		CreatedAt:              r.CreatedAt.UTC(),
	}
}

// CreateReview fails with ErrConflict when the client already has a review.
func (r *Repo) CreateReview(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx, insertReviewSQL,
		rv.ID, rv.ClientID, rv.AccountID, rv.Rating,
		valStr(rv.Text), valStr(rv.PhotoURL), valStr(rv.VideoURL),
		rv.PostedToGoogle, valStr(rv.GoogleReviewURL),
		rv.WasIntercepted, rv.InterceptCallRequested, rv.InterceptResolved,
		valStr(rv.InterceptNotes), rv.CreatedAt.UTC(),
	)
	if isDuplicate(err) {
		return fmt.Errorf("review for client %s: %w", rv.ClientID, domain.ErrConflict)
	}
	return err
}

func (r *Repo) getReview(ctx context.Context, query string, arg any) (domain.Review, error) {
	var row reviewRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.Review{}, notFound(err, "review")
	}
	return row.toDomain(), nil
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	return r.getReview(ctx, selectReviewSQL+" WHERE id = ?", id)
}

func (r *Repo) GetReviewByClient(ctx context.Context, clientID string) (domain.Review, error) {
	return r.getReview(ctx, selectReviewSQL+" WHERE client_id = ?", clientID)
}

func (r *Repo) ListReviews(ctx context.Context, accountID string) ([]domain.Review, error) {
	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		selectReviewSQL+" WHERE account_id = ? ORDER BY created_at DESC", accountID); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) ResolveIntercept(ctx context.Context, id string, resolved bool, notes *string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE reviews SET intercept_resolved = ?, intercept_notes = COALESCE(?, intercept_notes) WHERE id = ?`,
		resolved, valStr(notes), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows also means nothing changed; only report a missing row.
		if _, err := r.GetReview(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
