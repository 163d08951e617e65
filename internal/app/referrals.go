package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

type ReferralService struct {
	store domain.Store
	cache domain.Cache
	now   Clock
}

func NewReferralService(s domain.Store, c domain.Cache, now Clock) *ReferralService {
	if now == nil {
		now = SystemClock
	}
	return &ReferralService{store: s, cache: c, now: now}
}

type SubmitReferralInput struct {
	ClientID      string  `json:"clientId" validate:"required,uuid"`
	ReferredName  string  `json:"referredName" validate:"required,min=1,max=100"`
	ReferredPhone *string `json:"referredPhone" validate:"omitempty,max=20,phone"`
	ReferredEmail *string `json:"referredEmail" validate:"omitempty,email,max=320"`
	ReferredNotes *string `json:"referredNotes" validate:"omitempty,max=500"`
}

type SubmitReferralResult struct {
	Success    bool   `json:"success"`
	ReferralID string `json:"referralId"`
}

// Submit stores a referral from a client who has already left a review.
func (s *ReferralService) Submit(ctx context.Context, in SubmitReferralInput) (SubmitReferralResult, error) {
	if err := validateInput(in); err != nil {
		return SubmitReferralResult{}, err
	}
	c, err := s.store.GetClient(ctx, in.ClientID)
	if err != nil {
		return SubmitReferralResult{}, err
	}
	if c.Status != domain.StatusReviewed && c.Status != domain.StatusReferred {
		return SubmitReferralResult{}, fmt.Errorf("client %s has not reviewed: %w", c.ID, domain.ErrConflict)
	}

	now := s.now()
	ref := domain.Referral{
		ClientID:      c.ID,
		AccountID:     c.AccountID,
		ReferredName:  in.ReferredName,
		ReferredPhone: emptyToNil(in.ReferredPhone),
		ReferredEmail: emptyToNil(in.ReferredEmail),
		ReferredNotes: emptyToNil(in.ReferredNotes),
		Status:        domain.ReferralNew,
		CreatedAt:     now,
	}
	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.CreateReferral(ctx, &ref); err != nil {
			return err
		}
		if c.Status == domain.StatusReviewed {
			if err := tx.TransitionClient(ctx, c.ID, domain.StatusReferred, now); err != nil {
				return err
			}
		}
		return tx.RecordUsage(ctx, &domain.UsageEvent{
			AccountID:   c.AccountID,
			EventType:   domain.UsageReferral,
			RelatedID:   &ref.ID,
			AmountCents: domain.ReferralPriceCents,
		})
	})
	if err != nil {
		return SubmitReferralResult{}, err
	}
	invalidateDashboard(ctx, s.cache, c.AccountID)
	log.Info().Str("account_id", c.AccountID).Str("client_id", c.ID).Msg("referral submitted")
	return SubmitReferralResult{Success: true, ReferralID: ref.ID}, nil
}

func (s *ReferralService) List(ctx context.Context, accountID string) ([]domain.Referral, error) {
	return s.store.ListReferrals(ctx, accountID)
}

type UpdateReferralInput struct {
	Status domain.ReferralStatus `json:"status" validate:"required,oneof=new contacted converted lost"`
}

func (s *ReferralService) UpdateStatus(ctx context.Context, accountID, id string, in UpdateReferralInput) (domain.Referral, error) {
	if err := validateInput(in); err != nil {
		return domain.Referral{}, err
	}
	ref, err := s.store.GetReferral(ctx, id)
	if err != nil {
		return domain.Referral{}, err
	}
	if ref.AccountID != accountID {
		return domain.Referral{}, fmt.Errorf("referral %s: %w", id, domain.ErrNotFound)
	}
	ref.Status = in.Status
	if in.Status == domain.ReferralConverted && ref.BecameClientAt == nil {
		ref.BecameClient = ptr(true)
		ref.BecameClientAt = ptr(s.now())
	}
	if in.Status == domain.ReferralLost {
		ref.BecameClient = ptr(false)
	}
	if err := s.store.UpdateReferral(ctx, ref); err != nil {
		return domain.Referral{}, err
	}
	invalidateDashboard(ctx, s.cache, accountID)
	return ref, nil
}

func emptyToNil(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}
