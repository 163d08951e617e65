package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
	"review_hero/internal/templates"
)

type TemplateService struct {
	store   domain.Store
	catalog templates.Catalog
}

func NewTemplateService(s domain.Store, c templates.Catalog) *TemplateService {
	return &TemplateService{store: s, catalog: c}
}

type TemplateView struct {
	ID                  string  `json:"id"`
	Slug                string  `json:"slug"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	Icon                *string `json:"icon"`
	CelebrationHeadline string  `json:"celebrationHeadline"`
	CelebrationBody     string  `json:"celebrationBody"`
	ReviewAsk           string  `json:"reviewAsk"`
	GoogleHeadline      string  `json:"googleHeadline"`
	GoogleSubhead       string  `json:"googleSubhead"`
	ReferralHeadline    string  `json:"referralHeadline"`
	ReferralBody        string  `json:"referralBody"`
}

func newTemplateView(t domain.IndustryTemplate) TemplateView {
	return TemplateView{
		ID:                  t.ID,
		Slug:                t.Slug,
		Name:                t.Name,
		Category:            t.Category,
		Icon:                t.Icon,
		CelebrationHeadline: t.CelebrationHeadline,
		CelebrationBody:     t.CelebrationBody,
		ReviewAsk:           t.ReviewAsk,
		GoogleHeadline:      t.GoogleHeadline,
		GoogleSubhead:       t.GoogleSubhead,
		ReferralHeadline:    t.ReferralHeadline,
		ReferralBody:        t.ReferralBody,
	}
}

// List returns active templates, optionally for one category.
func (s *TemplateService) List(ctx context.Context, category string) ([]TemplateView, error) {
	all, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateView, 0, len(all))
	for _, t := range all {
		if !t.IsActive || (category != "" && t.Category != category) {
			continue
		}
		out = append(out, newTemplateView(t))
	}
	return out, nil
}

func (s *TemplateService) Categories(ctx context.Context) ([]string, error) {
	all, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	seen := map[string]bool{}
	for _, t := range all {
		if !t.IsActive || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out, nil
}

// Sync upserts the embedded catalogue by slug and returns the stored
// templates keyed by slug.
func (s *TemplateService) Sync(ctx context.Context) (map[string]domain.IndustryTemplate, error) {
	out := make(map[string]domain.IndustryTemplate, len(s.catalog.Templates))
	for _, t := range s.catalog.Templates {
		if err := s.store.UpsertTemplate(ctx, &t); err != nil {
			return nil, fmt.Errorf("upsert template %s: %w", t.Slug, err)
		}
		out[t.Slug] = t
	}
	log.Info().Int("count", len(out)).Msg("industry templates synced")
	return out, nil
}
