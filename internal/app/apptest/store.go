// Package apptest provides in-memory fakes of the domain ports for tests.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"review_hero/internal/domain"
)

// Store is an in-memory domain.Store. WithTx runs fn directly and does not
// roll back.
type Store struct {
	mu        sync.Mutex
	Accounts  map[string]domain.Account
	Clients   map[string]domain.Client
	Reviews   map[string]domain.Review
	Referrals map[string]domain.Referral
	Usage     []domain.UsageEvent
	Templates map[string]domain.IndustryTemplate
	Webhooks  map[string]string
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Accounts:  map[string]domain.Account{},
		Clients:   map[string]domain.Client{},
		Reviews:   map[string]domain.Review{},
		Referrals: map[string]domain.Referral{},
		Templates: map[string]domain.IndustryTemplate{},
		Webhooks:  map[string]string{},
	}
}

func notFound(what, id string) error { return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound) }

func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error { return fn(s) }

// ---- accounts ----

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.WhopUserID != nil {
		for _, x := range s.Accounts {
			if x.WhopUserID != nil && *x.WhopUserID == *a.WhopUserID {
				return fmt.Errorf("account: %w", domain.ErrConflict)
			}
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Plan == "" {
		a.ApplyPlan(domain.PlanStarter)
	}
	a.CreatedAt, a.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.Accounts[a.ID] = *a
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return domain.Account{}, notFound("account", id)
	}
	return a, nil
}

func (s *Store) GetAccountByWhopUser(ctx context.Context, whopUserID string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if a.WhopUserID != nil && *a.WhopUserID == whopUserID {
			return a, nil
		}
	}
	return domain.Account{}, notFound("account", whopUserID)
}

func (s *Store) UpdateAccount(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Accounts[a.ID]; !ok {
		return notFound("account", a.ID)
	}
	a.UpdatedAt = time.Now().UTC()
	s.Accounts[a.ID] = a
	return nil
}

func (s *Store) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return notFound("account", id)
	}
	a.RequestsUsedThisMonth++
	s.Accounts[id] = a
	return nil
}

func (s *Store) ResetBillingCycle(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return notFound("account", id)
	}
	a.RequestsUsedThisMonth = 0
	a.BillingCycleStart = &at
	s.Accounts[id] = a
	return nil
}

// ---- clients ----

func (s *Store) CreateClient(ctx context.Context, c *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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
		c.CreatedAt = time.Now().UTC()
	}
	s.Clients[c.ID] = *c
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Clients[id]
	if !ok {
		return domain.Client{}, notFound("client", id)
	}
	return c, nil
}

func (s *Store) GetClientByToken(ctx context.Context, token string) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Clients {
		if c.Token == token {
			return c, nil
		}
	}
	return domain.Client{}, notFound("client", token)
}

func (s *Store) ListClients(ctx context.Context, accountID string) ([]domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Client
	for _, c := range s.Clients {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) TransitionClient(ctx context.Context, id string, to domain.ClientStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Clients[id]
	if !ok {
		return notFound("client", id)
	}
	if !c.Status.CanTransitionTo(to) {
		return fmt.Errorf("client %s %s -> %s: %w", id, c.Status, to, domain.ErrInvalidTransition)
	}
	c.Status = to
	stamp := func(p **time.Time) {
		if *p == nil {
			t := at
			*p = &t
		}
	}
	switch to {
	case domain.StatusSent:
		stamp(&c.SentAt)
	case domain.StatusClicked:
		stamp(&c.OpenedAt)
	case domain.StatusReviewed:
		stamp(&c.ReviewedAt)
	}
	s.Clients[id] = c
	return nil
}

func (s *Store) ListNudgeCandidates(ctx context.Context, now time.Time, limit int) ([]domain.NudgeCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NudgeCandidate
	for _, c := range s.Clients {
		a := s.Accounts[c.AccountID]
		if !a.AutoNudgesEnabled || !a.MembershipActive || c.Email == nil || c.Expired(now) {
			continue
		}
		if _, due := c.DueNudge(now); !due {
			continue
		}
		out = append(out, domain.NudgeCandidate{Client: c, BusinessName: a.BusinessName, AccountEmail: a.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client.SentAt.Before(*out[j].Client.SentAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkNudged(ctx context.Context, clientID string, nudge int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Clients[clientID]
	if !ok {
		return notFound("client", clientID)
	}
	slots := []**time.Time{&c.Nudge1SentAt, &c.Nudge2SentAt, &c.Nudge3SentAt}
	if nudge < 1 || nudge > len(slots) {
		return fmt.Errorf("nudge %d out of range", nudge)
	}
	if *slots[nudge-1] != nil {
		return fmt.Errorf("client %s nudge %d: %w", clientID, nudge, domain.ErrConflict)
	}
	t := at
	*slots[nudge-1] = &t
	s.Clients[clientID] = c
	return nil
}

func (s *Store) ExpireClients(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts []string
	for id, c := range s.Clients {
		if !c.Status.CanTransitionTo(domain.StatusExpired) {
			continue
		}
		stale := (c.ExpiresAt != nil && c.ExpiresAt.Before(now)) ||
			(c.ExpiresAt == nil && c.SentAt != nil && c.SentAt.Before(now.Add(-domain.RequestLifetime)))
		if stale {
			c.Status = domain.StatusExpired
			s.Clients[id] = c
			accounts = append(accounts, c.AccountID)
		}
	}
	return accounts, nil
}

// ---- reviews ----

func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.Reviews {
		if x.ClientID == r.ClientID {
			return fmt.Errorf("review for client %s: %w", r.ClientID, domain.ErrConflict)
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.Reviews[r.ID] = *r
	return nil
}

func (s *Store) GetReview(ctx context.Context, id string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Reviews[id]
	if !ok {
		return domain.Review{}, notFound("review", id)
	}
	return r, nil
}

func (s *Store) GetReviewByClient(ctx context.Context, clientID string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Reviews {
		if r.ClientID == clientID {
			return r, nil
		}
	}
	return domain.Review{}, notFound("review", clientID)
}

func (s *Store) ListReviews(ctx context.Context, accountID string) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Review
	for _, r := range s.Reviews {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ResolveIntercept(ctx context.Context, id string, resolved bool, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Reviews[id]
	if !ok {
		return notFound("review", id)
	}
	r.InterceptResolved = resolved
	if notes != nil {
		r.InterceptNotes = notes
	}
	s.Reviews[id] = r
	return nil
}

// ---- referrals ----

func (s *Store) CreateReferral(ctx context.Context, r *domain.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = domain.ReferralNew
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.Referrals[r.ID] = *r
	return nil
}

func (s *Store) GetReferral(ctx context.Context, id string) (domain.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Referrals[id]
	if !ok {
		return domain.Referral{}, notFound("referral", id)
	}
	return r, nil
}

func (s *Store) ListReferrals(ctx context.Context, accountID string) ([]domain.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Referral{}
	for _, r := range s.Referrals {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateReferral(ctx context.Context, r domain.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Referrals[r.ID]; !ok {
		return notFound("referral", r.ID)
	}
	s.Referrals[r.ID] = r
	return nil
}

// ---- usage ----

func (s *Store) RecordUsage(ctx context.Context, e *domain.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.Usage = append(s.Usage, *e)
	return nil
}

func (s *Store) MarkBilled(ctx context.Context, accountID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i, e := range s.Usage {
		if e.AccountID == accountID && !e.Billed {
			t := at
			s.Usage[i].Billed, s.Usage[i].BilledAt = true, &t
			n++
		}
	}
	return n, nil
}

func (s *Store) UnbilledCents(ctx context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, e := range s.Usage {
		if e.AccountID == accountID && !e.Billed {
			total += e.AmountCents
		}
	}
	return total, nil
}

// ---- templates ----

func (s *Store) UpsertTemplate(ctx context.Context, t *domain.IndustryTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, x := range s.Templates {
		if x.Slug == t.Slug {
			t.ID, t.CreatedAt = id, x.CreatedAt
			s.Templates[id] = *t
			return nil
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	s.Templates[t.ID] = *t
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (domain.IndustryTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Templates[id]
	if !ok {
		return domain.IndustryTemplate{}, notFound("template", id)
	}
	return t, nil
}

func (s *Store) GetTemplateBySlug(ctx context.Context, slug string) (domain.IndustryTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Templates {
		if t.Slug == slug {
			return t, nil
		}
	}
	return domain.IndustryTemplate{}, notFound("template", slug)
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.IndustryTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.IndustryTemplate, 0, len(s.Templates))
	for _, t := range s.Templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// ---- webhooks ----

func (s *Store) RecordWebhook(ctx context.Context, provider, key, eventType string, payload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := provider + "|" + key
	if _, dup := s.Webhooks[k]; dup {
		return false, nil
	}
	s.Webhooks[k] = eventType
	return true, nil
}
