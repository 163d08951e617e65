package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

type ReviewService struct {
	store       domain.Store
	cache       domain.Cache
	defaultCopy domain.IndustryTemplate
	now         Clock
}

func NewReviewService(s domain.Store, c domain.Cache, defaultCopy domain.IndustryTemplate, now Clock) *ReviewService {
	if now == nil {
		now = SystemClock
	}
	return &ReviewService{store: s, cache: c, defaultCopy: defaultCopy, now: now}
}

type ClientAccount struct {
	ID            string  `json:"id"`
	BusinessName  string  `json:"businessName"`
	GooglePlaceID *string `json:"googlePlaceId"`
	PrimaryColor  string  `json:"primaryColor"`
	LogoURL       *string `json:"logoUrl"`
}

// ClientView is what the public review page renders.
type ClientView struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Email    *string             `json:"email"`
	Token    string              `json:"token"`
	Status   domain.ClientStatus `json:"status"`
	Account  ClientAccount       `json:"account"`
	Template domain.TemplateCopy `json:"template"`
}

// ClientView resolves a review link. Opening it moves a pending or sent
// client to clicked.
func (s *ReviewService) ClientView(ctx context.Context, token string) (ClientView, error) {
	if token == "" {
		return ClientView{}, domain.NewValidationError("token", "is required")
	}
	now := s.now()
	c, err := s.store.GetClientByToken(ctx, token)
	if err != nil {
		return ClientView{}, err
	}
	if c.Expired(now) {
		return ClientView{}, fmt.Errorf("client %s: %w", c.ID, domain.ErrExpired)
	}
	acc, err := s.store.GetAccount(ctx, c.AccountID)
	if err != nil {
		return ClientView{}, err
	}

	var tpl *domain.IndustryTemplate
	if acc.IndustryTemplateID != nil {
		t, err := s.store.GetTemplate(ctx, *acc.IndustryTemplateID)
		switch {
		case err == nil:
			tpl = &t
		case !errors.Is(err, domain.ErrNotFound):
			return ClientView{}, err
		}
	}

	if c.Status == domain.StatusPending || c.Status == domain.StatusSent {
		err := s.store.TransitionClient(ctx, c.ID, domain.StatusClicked, now)
		switch {
		case err == nil:
			c.Status = domain.StatusClicked
			invalidateDashboard(ctx, s.cache, acc.ID)
		case errors.Is(err, domain.ErrInvalidTransition):
			// another request already advanced it
		default:
			return ClientView{}, err
		}
	}

	return ClientView{
		ID:     c.ID,
		Name:   c.Name,
		Email:  c.Email,
		Token:  c.Token,
		Status: c.Status,
		Account: ClientAccount{
			ID:            acc.ID,
			BusinessName:  acc.BusinessName,
			GooglePlaceID: acc.GooglePlaceID,
			PrimaryColor:  acc.Color(),
			LogoURL:       acc.LogoURL,
		},
		Template: domain.ResolveCopy(acc, tpl, s.defaultCopy),
	}, nil
}

type SubmitReviewInput struct {
	ClientID       string  `json:"clientId" validate:"required,uuid"`
	Rating         int     `json:"rating" validate:"required,min=1,max=5"`
	Text           *string `json:"text" validate:"omitempty,max=5000"`
	PostedToGoogle bool    `json:"postedToGoogle"`
	WasIntercepted bool    `json:"wasIntercepted"`
	RequestCall    bool    `json:"requestCall"`
}

type SubmitReviewResult struct {
	Success         bool    `json:"success"`
	ReviewID        string  `json:"reviewId"`
	Rating          int     `json:"rating"`
	WasIntercepted  bool    `json:"wasIntercepted"`
	GoogleReviewURL *string `json:"googleReviewUrl,omitempty"`
}

// Submit records the client's single review. Low ratings are always kept
// private; only public reviews are billed.
func (s *ReviewService) Submit(ctx context.Context, in SubmitReviewInput) (SubmitReviewResult, error) {
	if err := validateInput(in); err != nil {
		return SubmitReviewResult{}, err
	}
	now := s.now()
	c, err := s.store.GetClient(ctx, in.ClientID)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	if c.Expired(now) {
		return SubmitReviewResult{}, fmt.Errorf("client %s: %w", c.ID, domain.ErrExpired)
	}
	if _, err := s.store.GetReviewByClient(ctx, c.ID); err == nil {
		return SubmitReviewResult{}, fmt.Errorf("review already submitted: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return SubmitReviewResult{}, err
	}
	acc, err := s.store.GetAccount(ctx, c.AccountID)
	if err != nil {
		return SubmitReviewResult{}, err
	}

	intercepted := in.WasIntercepted || domain.ShouldIntercept(in.Rating)
	rv := domain.Review{
		ClientID:       c.ID,
		AccountID:      c.AccountID,
		Rating:         in.Rating,
		WasIntercepted: intercepted,
		CreatedAt:      now,
	}
	if in.Text != nil && *in.Text != "" {
		rv.Text = in.Text
	}
	if intercepted {
		rv.InterceptCallRequested = in.RequestCall
	} else {
		rv.PostedToGoogle = in.PostedToGoogle
		if acc.GooglePlaceID != nil && *acc.GooglePlaceID != "" {
			rv.GoogleReviewURL = ptr(domain.GoogleReviewURL(*acc.GooglePlaceID))
		}
	}

	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.CreateReview(ctx, &rv); err != nil {
			return err
		}
		if err := tx.TransitionClient(ctx, c.ID, domain.StatusReviewed, now); err != nil {
			return err
		}
		if intercepted {
			return nil
		}
		if err := tx.RecordUsage(ctx, &domain.UsageEvent{
			AccountID:   c.AccountID,
			EventType:   domain.UsageReview,
			RelatedID:   &rv.ID,
			AmountCents: domain.ReviewPriceCents,
		}); err != nil {
			return err
		}
		return tx.IncrementUsage(ctx, c.AccountID)
	})
	if err != nil {
		return SubmitReviewResult{}, err
	}
	invalidateDashboard(ctx, s.cache, c.AccountID)
	log.Info().
		Str("account_id", c.AccountID).
		Str("client_id", c.ID).
		Int("rating", in.Rating).
		Bool("intercepted", intercepted).
		Msg("review submitted")

	return SubmitReviewResult{
		Success:         true,
		ReviewID:        rv.ID,
		Rating:          rv.Rating,
		WasIntercepted:  intercepted,
		GoogleReviewURL: rv.GoogleReviewURL,
	}, nil
}

type ResolveInterceptInput struct {
	Resolved bool    `json:"resolved"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

func (s *ReviewService) ResolveIntercept(ctx context.Context, accountID, reviewID string, in ResolveInterceptInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	rv, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.AccountID != accountID {
		return fmt.Errorf("review %s: %w", reviewID, domain.ErrNotFound)
	}
	if !rv.WasIntercepted {
		return fmt.Errorf("review %s was not intercepted: %w", reviewID, domain.ErrConflict)
	}
	if err := s.store.ResolveIntercept(ctx, reviewID, in.Resolved, in.Notes); err != nil {
		return err
	}
	invalidateDashboard(ctx, s.cache, accountID)
	return nil
}
