package domain

import "time"

type UsageEventType string

const (
	UsageReview   UsageEventType = "review"
	UsageReferral UsageEventType = "referral"
)

// Billable amounts per result, in cents.
const (
	ReviewPriceCents   = 300
	ReferralPriceCents = 2500
)

type UsageEvent struct {
	ID          string
	AccountID   string
	EventType   UsageEventType
	RelatedID   *string
	AmountCents int
	Billed      bool
	BilledAt    *time.Time
	CreatedAt   time.Time
}
