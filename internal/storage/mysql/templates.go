package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

type templateRow struct {
	ID                  string         `db:"id"`
	Slug                string         `db:"slug"`
	Name                string         `db:"name"`
	Category            string         `db:"category"`
	CelebrationHeadline string         `db:"celebration_headline"`
	CelebrationBody     string         `db:"celebration_body"`
	ReviewAsk           string         `db:"review_ask"`
	GoogleHeadline      string         `db:"google_headline"`
	GoogleSubhead       string         `db:"google_subhead"`
	ReferralHeadline    string         `db:"referral_headline"`
	ReferralBody        string         `db:"referral_body"`
	Icon                sql.NullString `db:"icon"`
	IsActive            bool           `db:"is_active"`
	SortOrder           int            `db:"sort_order"`
	CreatedAt           time.Time      `db:"created_at"`
}

func (r templateRow) toDomain() domain.IndustryTemplate {
	return domain.IndustryTemplate{
		ID:                  r.ID,
		Slug:                r.Slug,
		Name:                r.Name,
		Category:            r.Category,
		CelebrationHeadline: r.CelebrationHeadline,
		CelebrationBody:     r.CelebrationBody,
		ReviewAsk:           r.ReviewAsk,
		GoogleHeadline:      r.GoogleHeadline,
		GoogleSubhead:       r.GoogleSubhead,
		ReferralHeadline:    r.ReferralHeadline,
		ReferralBody:        r.ReferralBody,
		Icon:                ptrNullStr(r.Icon),
		IsActive:            r.IsActive,
		SortOrder:           r.SortOrder,
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

const selectTemplateOrdered = selectTemplateSQL + " ORDER BY sort_order, name"

// UpsertTemplate inserts or refreshes a template by slug and loads the
// stored id back into t.
func (r *Repo) UpsertTemplate(ctx context.Context, t *domain.IndustryTemplate) error {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.q.ExecContext(ctx, upsertTemplateSQL,
		id, t.Slug, t.Name, t.Category,
		t.CelebrationHeadline, t.CelebrationBody, t.ReviewAsk,
		t.GoogleHeadline, t.GoogleSubhead, t.ReferralHeadline, t.ReferralBody,
		valStr(t.Icon), t.IsActive, t.SortOrder, now(),
	)
	if err != nil {
		return err
	}
	stored, err := r.GetTemplateBySlug(ctx, t.Slug)
	if err != nil {
		return err
	}
	*t = stored
	return nil
}

func (r *Repo) getTemplate(ctx context.Context, query string, arg any) (domain.IndustryTemplate, error) {
	var row templateRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.IndustryTemplate{}, notFound(err, "template")
	}
	return row.toDomain(), nil
}

func (r *Repo) GetTemplate(ctx context.Context, id string) (domain.IndustryTemplate, error) {
	return r.getTemplate(ctx, selectTemplateSQL+" WHERE id = ?", id)
}

func (r *Repo) GetTemplateBySlug(ctx context.Context, slug string) (domain.IndustryTemplate, error) {
	return r.getTemplate(ctx, selectTemplateSQL+" WHERE slug = ?", slug)
}

// ListTemplates returns active and inactive templates; callers filter.
func (r *Repo) ListTemplates(ctx context.Context) ([]domain.IndustryTemplate, error) {
	var rows []templateRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, selectTemplateOrdered); err != nil {
		return nil, err
	}
	out := make([]domain.IndustryTemplate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
