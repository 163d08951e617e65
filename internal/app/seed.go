package app

import (
	"context"
	"fmt"

	"review_hero/internal/domain"
)

const (
	seedTemplateSlug  = "fitness-coach"
	seedBusinessName  = "Joe's Fitness Studio"
	seedBusinessEmail = "joe@fitness.com"
	seedPlaceID       = "ChIJN1t_tDeuEmsRUsoyG83frY4"
	seedClientName    = "Sarah Test"
	seedClientEmail   = "sarah@test.com"
)

type SeedService struct {
	store     domain.Store
	templates *TemplateService
	appURL    string
	now       Clock
}

func NewSeedService(s domain.Store, t *TemplateService, appURL string, now Clock) *SeedService {
	if now == nil {
		now = SystemClock
	}
	return &SeedService{store: s, templates: t, appURL: appURL, now: now}
}

type SeedResult struct {
	Success    bool   `json:"success"`
	TemplateID string `json:"templateId"`
	AccountID  string `json:"accountId"`
	ClientID   string `json:"clientId"`
	ReviewLink string `json:"reviewLink"`
}

func (s *SeedService) Templates(ctx context.Context) (int, error) {
	got, err := s.templates.Sync(ctx)
	return len(got), err
}

// Demo seeds the catalogue plus a test account with one sent request.
func (s *SeedService) Demo(ctx context.Context) (SeedResult, error) {
	tpls, err := s.templates.Sync(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	tpl, ok := tpls[seedTemplateSlug]
	if !ok {
		return SeedResult{}, fmt.Errorf("template %s: %w", seedTemplateSlug, domain.ErrNotFound)
	}

	now := s.now()
	acc := domain.NewAccount(seedBusinessName, seedBusinessEmail)
	acc.IndustryTemplateID = &tpl.ID
	acc.GooglePlaceID = ptr(seedPlaceID)
	c := domain.Client{
		Name:      seedClientName,
		Email:     ptr(seedClientEmail),
		Status:    domain.StatusSent,
		Source:    domain.SourceEmail,
		SentAt:    &now,
		ExpiresAt: ptr(now.Add(domain.RequestLifetime)),
	}
	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.CreateAccount(ctx, &acc); err != nil {
			return err
		}
		c.AccountID = acc.ID
		return tx.CreateClient(ctx, &c)
	})
	if err != nil {
		return SeedResult{}, err
	}
	return SeedResult{
		Success:    true,
		TemplateID: tpl.ID,
		AccountID:  acc.ID,
		ClientID:   c.ID,
		ReviewLink: reviewLink(s.appURL, c.Token),
	}, nil
}
