package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

type clientRow struct {
	ID           string         `db:"id"`
	AccountID    string         `db:"account_id"`
	Name         string         `db:"name"`
	Email        sql.NullString `db:"email"`
	Phone        sql.NullString `db:"phone"`
	Token        string         `db:"token"`
	Status       string         `db:"status"`
	Source       string         `db:"source"`
	SentAt       sql.NullTime   `db:"sent_at"`
	OpenedAt     sql.NullTime   `db:"opened_at"`
	ReviewedAt   sql.NullTime   `db:"reviewed_at"`
	Nudge1SentAt sql.NullTime   `db:"nudge1_sent_at"`
	Nudge2SentAt sql.NullTime   `db:"nudge2_sent_at"`
	Nudge3SentAt sql.NullTime   `db:"nudge3_sent_at"`
	ExpiresAt    sql.NullTime   `db:"expires_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r clientRow) toDomain() domain.Client {
	return domain.Client{
		ID:           r.ID,
		AccountID:    r.AccountID,
		Name:         r.Name,
		Email:        ptrNullStr(r.Email),
		Phone:        ptrNullStr(r.Phone),
		Token:        r.Token,
		Status:       domain.ClientStatus(r.Status),
		Source:       domain.Source(r.Source),
		SentAt:       ptrNullTime(r.SentAt),
		OpenedAt:     ptrNullTime(r.OpenedAt),
		ReviewedAt:   ptrNullTime(r.ReviewedAt),
		Nudge1SentAt: ptrNullTime(r.Nudge1SentAt),
		Nudge2SentAt: ptrNullTime(r.Nudge2SentAt),
		Nudge3SentAt: ptrNullTime(r.Nudge3SentAt),
		ExpiresAt:    ptrNullTime(r.ExpiresAt),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type nudgeRow struct {
	clientRow
	BusinessName string `db:"business_name"`
	AccountEmail string `db:"account_email"`
}

// stampColumn is the timestamp recorded the first time a client enters a status.
var stampColumn = map[domain.ClientStatus]string{
	domain.StatusSent:     "sent_at",
	domain.StatusClicked:  "opened_at",
	domain.StatusReviewed: "reviewed_at",
}

func (r *Repo) CreateClient(ctx context.Context, c *domain.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Token == "" {
		c.Token = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.StatusPending
	}
	if c.Source == "" {
		c.Source = domain.SourceEmail
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx, insertClientSQL,
		c.ID, c.AccountID, c.Name, valStr(c.Email), valStr(c.Phone), c.Token,
		string(c.Status), string(c.Source),
		valTime(c.SentAt), valTime(c.OpenedAt), valTime(c.ReviewedAt),
		valTime(c.Nudge1SentAt), valTime(c.Nudge2SentAt), valTime(c.Nudge3SentAt),
		valTime(c.ExpiresAt), c.CreatedAt.UTC(),
	)
	if isDuplicate(err) {
		return fmt.Errorf("client: %w", domain.ErrConflict)
	}
	return err
}

func (r *Repo) getClient(ctx context.Context, query string, arg any) (domain.Client, error) {
	var row clientRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.Client{}, notFound(err, "client")
	}
	return row.toDomain(), nil
}

func (r *Repo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	return r.getClient(ctx, selectClientSQL+" WHERE id = ?", id)
}

func (r *Repo) GetClientByToken(ctx context.Context, token string) (domain.Client, error) {
	return r.getClient(ctx, selectClientSQL+" WHERE token = ?", token)
}

func (r *Repo) ListClients(ctx context.Context, accountID string) ([]domain.Client, error) {
	var rows []clientRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		selectClientSQL+" WHERE account_id = ? ORDER BY created_at DESC", accountID); err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// TransitionClient is a compare-and-set on status: the UPDATE only matches
// rows in one of the allowed source statuses, so concurrent writers cannot
// move a client backwards.
func (r *Repo) TransitionClient(ctx context.Context, id string, to domain.ClientStatus, at time.Time) error {
	from := to.AllowedFrom()
	if len(from) == 0 {
		return fmt.Errorf("client %s -> %s: %w", id, to, domain.ErrInvalidTransition)
	}
	var b strings.Builder
	args := []any{string(to)}
	b.WriteString("UPDATE clients SET status = ?")
	if col, ok := stampColumn[to]; ok {
		fmt.Fprintf(&b, ", %s = COALESCE(%s, ?)", col, col)
		args = append(args, at.UTC())
	}
	b.WriteString(" WHERE id = ? AND status IN (?" + strings.Repeat(", ?", len(from)-1) + ")")
	args = append(args, id)
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.q.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	cur, err := r.GetClient(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("client %s %s -> %s: %w", id, cur.Status, to, domain.ErrInvalidTransition)
}

func (r *Repo) ListNudgeCandidates(ctx context.Context, at time.Time, limit int) ([]domain.NudgeCandidate, error) {
	at = at.UTC()
	var rows []nudgeRow
	err := sqlx.SelectContext(ctx, r.q, &rows, selectNudgeCandidatesSQL,
		at,
		at.Add(-domain.NudgeOffsets[0]),
		at.Add(-domain.NudgeOffsets[1]),
		at.Add(-domain.NudgeOffsets[2]),
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NudgeCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.NudgeCandidate{
			Client:       row.clientRow.toDomain(),
			BusinessName: row.BusinessName,
			AccountEmail: row.AccountEmail,
		})
	}
	return out, nil
}

// MarkNudged records nudge n only if it has not been recorded yet; a second
// worker racing on the same client gets ErrConflict.
func (r *Repo) MarkNudged(ctx context.Context, clientID string, nudge int, at time.Time) error {
	if nudge < 1 || nudge > len(domain.NudgeOffsets) {
		return fmt.Errorf("nudge %d out of range", nudge)
	}
	col := fmt.Sprintf("nudge%d_sent_at", nudge)
	res, err := r.q.ExecContext(ctx,
		fmt.Sprintf("UPDATE clients SET %s = ? WHERE id = ? AND %s IS NULL", col, col),
		at.UTC(), clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("client %s nudge %d: %w", clientID, nudge, domain.ErrConflict)
	}
	return nil
}

func (r *Repo) ExpireClients(ctx context.Context, at time.Time) ([]string, error) {
	at = at.UTC()
	var accounts []string
	err := r.WithTx(ctx, func(s domain.Store) error {
		tx := s.(*Repo)
		var rows []struct {
			ID        string `db:"id"`
			AccountID string `db:"account_id"`
		}
		if err := sqlx.SelectContext(ctx, tx.q, &rows, selectExpiredClientsSQL,
			at, at.Add(-domain.RequestLifetime)); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
			accounts = append(accounts, row.AccountID)
		}
		q, args, err := sqlx.In(expireClientsSQL, ids)
		if err != nil {
			return err
		}
		_, err = tx.q.ExecContext(ctx, tx.q.Rebind(q), args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
