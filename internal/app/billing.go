package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

const (
	EventMembershipValid   = "membership.went_valid"
	EventMembershipInvalid = "membership.went_invalid"
	EventMembershipUpdated = "membership.updated"
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentFailed     = "payment.failed"

	providerWhop = "whop"
)

// BillingService applies billing provider webhooks to accounts.
type BillingService struct {
	store domain.Store
	cache domain.Cache
	plans map[string]domain.Plan
	now   Clock
}

// NewBillingService takes the provider plan id to plan mapping. Unknown plan
// ids leave the account's plan unchanged.
func NewBillingService(s domain.Store, c domain.Cache, plans map[string]domain.Plan, now Clock) *BillingService {
	if now == nil {
		now = SystemClock
	}
	return &BillingService{store: s, cache: c, plans: plans, now: now}
}

func eventKey(ev domain.WebhookEvent) string {
	if id := lookupStr(ev.Data, "id"); id != "" {
		return ev.Type + ":" + id
	}
	sum := sha256.Sum256(ev.Raw)
	return ev.Type + ":" + hex.EncodeToString(sum[:16])
}

// HandleWebhook records and applies ev in one transaction. It reports
// duplicate=true when the event was already processed.
func (s *BillingService) HandleWebhook(ctx context.Context, ev domain.WebhookEvent) (duplicate bool, err error) {
	var touched string
	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		fresh, err := tx.RecordWebhook(ctx, providerWhop, eventKey(ev), ev.Type, ev.Raw)
		if err != nil {
			return err
		}
		if !fresh {
			duplicate = true
			return nil
		}
		touched, err = s.dispatch(ctx, tx, ev)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("webhook %s: %w", ev.Type, err)
	}
	invalidateDashboard(ctx, s.cache, touched)
	return duplicate, nil
}

// dispatch returns the id of the account it changed, if any.
func (s *BillingService) dispatch(ctx context.Context, tx domain.Store, ev domain.WebhookEvent) (string, error) {
	switch ev.Type {
	case EventMembershipValid:
		return s.membershipValid(ctx, tx, mapMembership(ev.Data))
	case EventMembershipInvalid:
		return s.membershipInvalid(ctx, tx, mapMembership(ev.Data))
	case EventMembershipUpdated:
		return s.membershipUpdated(ctx, tx, mapMembership(ev.Data))
	case EventPaymentSucceeded:
		return s.paymentSucceeded(ctx, tx, mapPayment(ev.Data))
	case EventPaymentFailed:
		p := mapPayment(ev.Data)
		log.Warn().Str("payment_id", p.ID).Str("whop_user_id", p.UserID).Msg("payment failed")
		return "", nil
	default:
		log.Info().Str("type", ev.Type).Msg("no handler for webhook type")
		return "", nil
	}
}

func (s *BillingService) planFor(planID string) (domain.Plan, bool) {
	p, ok := s.plans[planID]
	return p, ok
}

func (s *BillingService) accountForUser(ctx context.Context, tx domain.Store, userID string) (domain.Account, bool, error) {
	if userID == "" {
		log.Warn().Msg("webhook without user id")
		return domain.Account{}, false, nil
	}
	acc, err := tx.GetAccountByWhopUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, false, nil
	}
	return acc, err == nil, err
}

func (s *BillingService) membershipValid(ctx context.Context, tx domain.Store, m domain.Membership) (string, error) {
	if m.UserID == "" {
		log.Warn().Str("membership_id", m.ID).Msg("membership without user id")
		return "", nil
	}
	acc, found, err := s.accountForUser(ctx, tx, m.UserID)
	if err != nil {
		return "", err
	}
	if !found {
		acc = domain.NewAccount(placeholderBusinessName, m.Email)
		acc.WhopUserID = &m.UserID
	}
	acc.WhopMembershipID = ptrStr(m.ID)
	acc.MembershipActive = true
	if p, ok := s.planFor(m.PlanID); ok {
		acc.ApplyPlan(p)
	}
	if acc.BillingCycleStart == nil {
		acc.BillingCycleStart = ptr(s.now())
	}
	if !found {
		if err := tx.CreateAccount(ctx, &acc); err != nil {
			return "", err
		}
		log.Info().Str("account_id", acc.ID).Str("plan", string(acc.Plan)).Msg("account created from membership")
		return acc.ID, nil
	}
	log.Info().Str("account_id", acc.ID).Str("plan", string(acc.Plan)).Msg("membership activated")
	return acc.ID, tx.UpdateAccount(ctx, acc)
}

func (s *BillingService) membershipInvalid(ctx context.Context, tx domain.Store, m domain.Membership) (string, error) {
	acc, found, err := s.accountForUser(ctx, tx, m.UserID)
	if err != nil || !found {
		return "", err
	}
	acc.MembershipActive = false
	acc.AutoNudgesEnabled = false
	log.Info().Str("account_id", acc.ID).Msg("membership deactivated")
	return acc.ID, tx.UpdateAccount(ctx, acc)
}

func (s *BillingService) membershipUpdated(ctx context.Context, tx domain.Store, m domain.Membership) (string, error) {
	acc, found, err := s.accountForUser(ctx, tx, m.UserID)
	if err != nil || !found {
		return "", err
	}
	if p, ok := s.planFor(m.PlanID); ok {
		acc.ApplyPlan(p)
	}
	acc.MembershipActive = m.Valid
	if m.ID != "" {
		acc.WhopMembershipID = &m.ID
	}
	return acc.ID, tx.UpdateAccount(ctx, acc)
}

func (s *BillingService) paymentSucceeded(ctx context.Context, tx domain.Store, p domain.Payment) (string, error) {
	acc, found, err := s.accountForUser(ctx, tx, p.UserID)
	if err != nil || !found {
		return "", err
	}
	now := s.now()
	if err := tx.ResetBillingCycle(ctx, acc.ID, now); err != nil {
		return "", err
	}
	n, err := tx.MarkBilled(ctx, acc.ID, now)
	if err != nil {
		return "", err
	}
	log.Info().Str("account_id", acc.ID).Int64("usage_events", n).Msg("billing cycle reset")
	return acc.ID, nil
}
