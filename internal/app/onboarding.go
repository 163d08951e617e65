package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

const demoClientName = "Demo Customer"

type OnboardingService struct {
	store    domain.Store
	cache    domain.Cache
	requests *RequestService
	now      Clock
}

func NewOnboardingService(s domain.Store, c domain.Cache, r *RequestService, now Clock) *OnboardingService {
	if now == nil {
		now = SystemClock
	}
	return &OnboardingService{store: s, cache: c, requests: r, now: now}
}

type ProfileInput struct {
	BusinessName  string  `json:"businessName" validate:"required,min=1,max=200"`
	Email         string  `json:"email" validate:"required,email,max=320"`
	Phone         *string `json:"phone" validate:"omitempty,max=20,phone"`
	Industry      *string `json:"industry" validate:"omitempty,max=100"`
	GooglePlaceID *string `json:"googlePlaceId" validate:"omitempty,max=500"`
}

// SaveProfile creates the account, or updates accountID when the caller
// already has one. It returns the account id.
func (s *OnboardingService) SaveProfile(ctx context.Context, accountID string, in ProfileInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	var templateID *string
	if in.Industry != nil && *in.Industry != "" {
		t, err := s.store.GetTemplateBySlug(ctx, *in.Industry)
		switch {
		case err == nil:
			templateID = &t.ID
		case errors.Is(err, domain.ErrNotFound):
			log.Warn().Str("industry", *in.Industry).Msg("unknown industry slug")
		default:
			return "", err
		}
	}

	if accountID != "" {
		a, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return "", err
		}
		a.BusinessName = in.BusinessName
		a.Email = in.Email
		if p := emptyToNil(in.Phone); p != nil {
			a.Phone = p
		}
		if templateID != nil {
			a.IndustryTemplateID = templateID
		}
		if p := emptyToNil(in.GooglePlaceID); p != nil {
			a.GooglePlaceID = p
		}
		if err := s.store.UpdateAccount(ctx, a); err != nil {
			return "", err
		}
		invalidateDashboard(ctx, s.cache, a.ID)
		return a.ID, nil
	}

	a := domain.NewAccount(in.BusinessName, in.Email)
	a.Phone = emptyToNil(in.Phone)
	a.IndustryTemplateID = templateID
	a.GooglePlaceID = emptyToNil(in.GooglePlaceID)
	if err := s.store.CreateAccount(ctx, &a); err != nil {
		return "", err
	}
	log.Info().Str("account_id", a.ID).Msg("account created")
	return a.ID, nil
}

type GooglePlaceInput struct {
	GooglePlaceID string `json:"googlePlaceId" validate:"required,min=1,max=500"`
}

func (s *OnboardingService) SaveGooglePlace(ctx context.Context, accountID string, in GooglePlaceInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	a.GooglePlaceID = &in.GooglePlaceID
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return err
	}
	invalidateDashboard(ctx, s.cache, accountID)
	return nil
}

type DemoInput struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type DemoResult struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	ReviewLink string  `json:"reviewLink"`
	EmailError *string `json:"emailError,omitempty"`
}

// Demo sends the owner a real review request so they see what clients get.
func (s *OnboardingService) Demo(ctx context.Context, accountID string, in DemoInput) (DemoResult, error) {
	if err := validateInput(in); err != nil {
		return DemoResult{}, err
	}
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return DemoResult{}, err
	}
	res, err := s.requests.createAndDeliver(ctx, a, demoClientName, in.Email, domain.EmailDemo)
	if err != nil {
		return DemoResult{}, err
	}
	msg := "Demo email sent"
	if !res.EmailSent {
		msg = "Demo link created"
	}
	return DemoResult{Success: true, Message: msg, ReviewLink: res.ReviewLink, EmailError: res.EmailError}, nil
}

func (s *OnboardingService) Complete(ctx context.Context, accountID string) error {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if a.OnboardingCompletedAt == nil {
		a.OnboardingCompletedAt = ptr(s.now())
		if err := s.store.UpdateAccount(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
