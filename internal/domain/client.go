package domain

import "time"

type ClientStatus string

const (
	StatusPending  ClientStatus = "pending"  // created, not yet sent
	StatusSent     ClientStatus = "sent"     // request delivered
	StatusClicked  ClientStatus = "clicked"  // link opened, no review yet
	StatusReviewed ClientStatus = "reviewed" // left a review
	StatusReferred ClientStatus = "referred" // named a referral
	StatusExpired  ClientStatus = "expired"  // no response before expiry
)

// transitions maps a target status to the statuses it may be entered from.
var transitions = map[ClientStatus][]ClientStatus{
	StatusSent:     {StatusPending},
	StatusClicked:  {StatusPending, StatusSent},
	StatusReviewed: {StatusPending, StatusSent, StatusClicked},
	StatusReferred: {StatusReviewed},
	StatusExpired:  {StatusPending, StatusSent, StatusClicked},
}

// AllowedFrom lists the statuses a client may move to s from.
func (s ClientStatus) AllowedFrom() []ClientStatus { return transitions[s] }

func (s ClientStatus) CanTransitionTo(to ClientStatus) bool {
	for _, from := range transitions[to] {
		if from == s {
			return true
		}
	}
	return false
}

type Source string

const (
	SourceEmail Source = "email"
	SourceSMS   Source = "sms"
	SourceQR    Source = "qr"
)

const RequestLifetime = 21 * 24 * time.Hour

// NudgeOffsets are measured from SentAt: day 3, day 7, day 14.
var NudgeOffsets = [3]time.Duration{
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
}

type Client struct {
	ID           string
	AccountID    string
	Name         string
	Email        *string
	Phone        *string
	Token        string
	Status       ClientStatus
	Source       Source
	SentAt       *time.Time
	OpenedAt     *time.Time
	ReviewedAt   *time.Time
	Nudge1SentAt *time.Time
	Nudge2SentAt *time.Time
	Nudge3SentAt *time.Time
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the review link can no longer be used.
func (c Client) Expired(now time.Time) bool {
	if c.Status == StatusExpired {
		return true
	}
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// DueNudge returns the 1-based nudge number that should be sent at now, if any.
// Nudges go out strictly in order; a later one is never sent before an earlier one.
func (c Client) DueNudge(now time.Time) (int, bool) {
	if c.SentAt == nil || (c.Status != StatusSent && c.Status != StatusClicked) {
		return 0, false
	}
	sent := []*time.Time{c.Nudge1SentAt, c.Nudge2SentAt, c.Nudge3SentAt}
	for i, at := range sent {
		if at != nil {
			continue
		}
		if !now.Before(c.SentAt.Add(NudgeOffsets[i])) {
			return i + 1, true
		}
		return 0, false
	}
	return 0, false
}
