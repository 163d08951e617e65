package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"review_hero/internal/domain"
)

const (
	activityWindow = 20
	activityLimit  = 10
)

type DashboardService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
	now      Clock
}

func NewDashboardService(s domain.Store, c domain.Cache, ttl time.Duration, now Clock) *DashboardService {
	if now == nil {
		now = SystemClock
	}
	return &DashboardService{store: s, cache: c, cacheTTL: ttl, now: now}
}

func (s *DashboardService) Get(ctx context.Context, accountID string) (domain.Dashboard, error) {
	key := dashboardKey(accountID)
	var out domain.Dashboard
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	clients, err := s.store.ListClients(ctx, accountID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("list clients: %w", err)
	}
	reviews, err := s.store.ListReviews(ctx, accountID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("list reviews: %w", err)
	}
	referrals, err := s.store.ListReferrals(ctx, accountID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("list referrals: %w", err)
	}
	unbilled, err := s.store.UnbilledCents(ctx, accountID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("unbilled usage: %w", err)
	}

	out = BuildDashboard(s.now(), acc, clients, reviews, len(referrals), unbilled)

	// optional size guard
	if s.cache != nil {
		if b, _ := json.Marshal(out); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
		}
	}
	return out, nil
}

func (s *DashboardService) Invalidate(ctx context.Context, accountID string) {
	invalidateDashboard(ctx, s.cache, accountID)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BuildDashboard aggregates stats and feeds. clients and reviews are expected
// newest first, as the repository returns them.
func BuildDashboard(now time.Time, acc domain.Account, clients []domain.Client, reviews []domain.Review, referrals, unbilledCents int) domain.Dashboard {
	start := monthStart(now)
	st := domain.DashboardStats{
		TotalReviewed:  len(reviews),
		AvgRating:      "0",
		ReferralsCount: referrals,
		RequestsUsed:   acc.RequestsUsedThisMonth,
		RequestLimit:   acc.MonthlyRequestLimit,
		UnbilledCents:  unbilledCents,
	}

	byID := make(map[string]domain.Client, len(clients))
	requests := make([]domain.DashboardRequest, 0, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
		if c.Status != domain.StatusPending {
			st.TotalSent++
		}
		if c.Status == domain.StatusClicked || c.OpenedAt != nil {
			st.TotalClicked++
		}
		if !c.CreatedAt.Before(start) {
			st.RequestsThisMonth++
		}
		requests = append(requests, domain.DashboardRequest{
			ID:         c.ID,
			Name:       c.Name,
			Email:      c.Email,
			Status:     c.Status,
			SentAt:     c.SentAt,
			OpenedAt:   c.OpenedAt,
			ReviewedAt: c.ReviewedAt,
			CreatedAt:  c.CreatedAt,
		})
	}

	ratingSum := 0
	list := make([]domain.DashboardReview, 0, len(reviews))
	for _, r := range reviews {
		ratingSum += r.Rating
		if !r.CreatedAt.Before(start) {
			st.ReviewsThisMonth++
		}
		if r.WasIntercepted {
			st.InterceptedCount++
		}
		dr := domain.DashboardReview{
			ID:                r.ID,
			Rating:            r.Rating,
			Text:              r.Text,
			ClientName:        "Unknown",
			PostedToGoogle:    r.PostedToGoogle,
			WasIntercepted:    r.WasIntercepted,
			InterceptResolved: r.InterceptResolved,
			CreatedAt:         r.CreatedAt,
		}
		if c, ok := byID[r.ClientID]; ok {
			dr.ClientName = c.Name
			dr.ClientEmail = c.Email
		}
		list = append(list, dr)
	}
	if n := len(reviews); n > 0 {
		st.AvgRating = fmt.Sprintf("%.1f", float64(ratingSum)/float64(n))
	}
	if st.TotalSent > 0 {
		st.ConversionRate = int(math.Round(float64(len(reviews)) / float64(st.TotalSent) * 100))
	}

	return domain.Dashboard{
		Stats:      st,
		Reviews:    list,
		Requests:   requests,
		Activities: buildActivities(clients),
	}
}

// buildActivities maps each of the most recent clients to its latest event.
func buildActivities(clients []domain.Client) []domain.Activity {
	recent := clients
	if len(recent) > activityWindow {
		recent = recent[:activityWindow]
	}
	out := make([]domain.Activity, 0, len(recent))
	for _, c := range recent {
		a := domain.Activity{ClientName: c.Name}
		switch {
		case c.ReviewedAt != nil:
			a.Type, a.Timestamp = domain.ActivityReviewed, *c.ReviewedAt
		case c.OpenedAt != nil:
			a.Type, a.Timestamp = domain.ActivityClicked, *c.OpenedAt
		case c.SentAt != nil:
			a.Type, a.Timestamp = domain.ActivitySent, *c.SentAt
		default:
			a.Type, a.Timestamp = domain.ActivityCreated, c.CreatedAt
		}
		a.ID = c.ID + "-" + string(a.Type)
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > activityLimit {
		out = out[:activityLimit]
	}
	return out
}
