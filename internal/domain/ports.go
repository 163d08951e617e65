package domain

import (
	"context"
	"io"
	"time"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByWhopUser(ctx context.Context, whopUserID string) (Account, error)
	UpdateAccount(ctx context.Context, a Account) error
	IncrementUsage(ctx context.Context, id string) error
	ResetBillingCycle(ctx context.Context, id string, at time.Time) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	GetClientByToken(ctx context.Context, token string) (Client, error)
	ListClients(ctx context.Context, accountID string) ([]Client, error)
	// TransitionClient moves a client to status `to` only from one of
	// to.AllowedFrom(); otherwise it returns ErrInvalidTransition.
	TransitionClient(ctx context.Context, id string, to ClientStatus, at time.Time) error
	ListNudgeCandidates(ctx context.Context, now time.Time, limit int) ([]NudgeCandidate, error)
	MarkNudged(ctx context.Context, clientID string, nudge int, at time.Time) error
	// ExpireClients expires every stale request and returns the owning
	// account id of each client it expired.
	ExpireClients(ctx context.Context, now time.Time) ([]string, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *Review) error
	GetReview(ctx context.Context, id string) (Review, error)
	GetReviewByClient(ctx context.Context, clientID string) (Review, error)
	ListReviews(ctx context.Context, accountID string) ([]Review, error)
	ResolveIntercept(ctx context.Context, id string, resolved bool, notes *string) error
}

type ReferralRepository interface {
	CreateReferral(ctx context.Context, r *Referral) error
	GetReferral(ctx context.Context, id string) (Referral, error)
	ListReferrals(ctx context.Context, accountID string) ([]Referral, error)
	UpdateReferral(ctx context.Context, r Referral) error
}

type UsageRepository interface {
	RecordUsage(ctx context.Context, e *UsageEvent) error
	MarkBilled(ctx context.Context, accountID string, at time.Time) (int64, error)
	UnbilledCents(ctx context.Context, accountID string) (int, error)
}

type TemplateRepository interface {
	UpsertTemplate(ctx context.Context, t *IndustryTemplate) error
	GetTemplate(ctx context.Context, id string) (IndustryTemplate, error)
	GetTemplateBySlug(ctx context.Context, slug string) (IndustryTemplate, error)
	ListTemplates(ctx context.Context) ([]IndustryTemplate, error)
}

type WebhookLedger interface {
	// RecordWebhook returns false when the event key was already recorded.
	RecordWebhook(ctx context.Context, provider, key, eventType string, payload []byte) (bool, error)
}

// Store is the full persistence surface. WithTx runs fn against a
// transaction-scoped Store and commits when fn returns nil.
type Store interface {
	AccountRepository
	ClientRepository
	ReviewRepository
	ReferralRepository
	UsageRepository
	TemplateRepository
	WebhookLedger
	WithTx(ctx context.Context, fn func(Store) error) error
}

// NudgeCandidate joins a client with the account fields a reminder needs.
type NudgeCandidate struct {
	Client       Client
	BusinessName string
	AccountEmail string
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// PlacesClient returns raw provider results; the app layer maps them.
type PlacesClient interface {
	TextSearch(ctx context.Context, query string) ([]map[string]any, error)
}

type WhopClient interface {
	AuthURL(state string) string
	// ExchangeCode returns the raw token response (access_token, user, ...).
	ExchangeCode(ctx context.Context, code string) (map[string]any, error)
	Me(ctx context.Context, accessToken string) (map[string]any, error)
}

type LogoStore interface {
	PutLogo(ctx context.Context, accountID, contentType string, body io.Reader, size int64) (string, error)
}
