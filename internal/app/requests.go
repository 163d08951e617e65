package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

const emailNotConfigured = "Email service not configured"

type RequestService struct {
	store  domain.Store
	mailer domain.Mailer
	cache  domain.Cache
	appURL string
	now    Clock
}

// NewRequestService accepts a nil mailer; requests are then marked sent
// without delivery so the link can be shared by hand.
func NewRequestService(s domain.Store, m domain.Mailer, c domain.Cache, appURL string, now Clock) *RequestService {
	if now == nil {
		now = SystemClock
	}
	return &RequestService{store: s, mailer: m, cache: c, appURL: appURL, now: now}
}

type SendRequestInput struct {
	AccountID   string `json:"accountId" validate:"required,uuid"`
	ClientName  string `json:"clientName" validate:"required,min=1,max=200"`
	ClientEmail string `json:"clientEmail" validate:"required,email,max=320"`
}

type SendRequestResult struct {
	Success    bool    `json:"success"`
	ClientID   string  `json:"clientId"`
	Token      string  `json:"token"`
	EmailSent  bool    `json:"emailSent"`
	EmailError *string `json:"emailError"`
	ReviewLink string  `json:"reviewLink"`
}

func (s *RequestService) ReviewLink(token string) string { return reviewLink(s.appURL, token) }

func (s *RequestService) Send(ctx context.Context, in SendRequestInput) (SendRequestResult, error) {
	if err := validateInput(in); err != nil {
		return SendRequestResult{}, err
	}
	acc, err := s.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return SendRequestResult{}, err
	}
	if !acc.MembershipActive {
		return SendRequestResult{}, fmt.Errorf("membership inactive: %w", domain.ErrForbidden)
	}
	if acc.MonthlyRequestLimit > 0 && acc.RequestsUsedThisMonth >= acc.MonthlyRequestLimit {
		return SendRequestResult{}, domain.ErrLimitReached
	}
	return s.createAndDeliver(ctx, acc, in.ClientName, in.ClientEmail, domain.EmailReviewRequest)
}

func (s *RequestService) createAndDeliver(ctx context.Context, acc domain.Account, name, email string, kind domain.EmailKind) (SendRequestResult, error) {
	expires := s.now().Add(domain.RequestLifetime)
	c := domain.Client{
		AccountID: acc.ID,
		Name:      name,
		Email:     &email,
		Status:    domain.StatusPending,
		Source:    domain.SourceEmail,
		ExpiresAt: &expires,
	}
	if err := s.store.CreateClient(ctx, &c); err != nil {
		return SendRequestResult{}, fmt.Errorf("create client: %w", err)
	}
	log.Info().Str("account_id", acc.ID).Str("client_id", c.ID).Msg("client created")

	res := SendRequestResult{
		Success:    true,
		ClientID:   c.ID,
		Token:      c.Token,
		ReviewLink: s.ReviewLink(c.Token),
	}
	sent, deliveryErr := s.deliver(ctx, acc, c, kind)
	res.EmailSent = sent
	if deliveryErr != "" {
		res.EmailError = &deliveryErr
	}
	invalidateDashboard(ctx, s.cache, acc.ID)
	return res, nil
}

// deliver emails the review link and advances the client to sent. The second
// return value is the user-facing delivery error, empty on success.
func (s *RequestService) deliver(ctx context.Context, acc domain.Account, c domain.Client, kind domain.EmailKind) (bool, string) {
	if s.mailer == nil {
		log.Warn().Str("client_id", c.ID).Msg("mailer not configured, email not sent")
		s.markSent(ctx, c.ID)
		return false, emailNotConfigured
	}
	msg, err := renderReviewRequest(kind, deref(c.Email), acc.Email, c.Name, acc.BusinessName, s.ReviewLink(c.Token), 0)
	if err != nil {
		log.Error().Err(err).Str("client_id", c.ID).Msg("render review request failed")
		return false, "Failed to send email"
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("client_id", c.ID).Msg("email send failed")
		return false, err.Error()
	}
	s.markSent(ctx, c.ID)
	log.Info().Str("client_id", c.ID).Msg("review request sent")
	return true, ""
}

func (s *RequestService) markSent(ctx context.Context, clientID string) {
	err := s.store.TransitionClient(ctx, clientID, domain.StatusSent, s.now())
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		log.Error().Err(err).Str("client_id", clientID).Msg("mark sent failed")
	}
}
