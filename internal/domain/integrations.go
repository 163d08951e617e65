package domain

// PlaceResult is one business listing returned by a places search.
type PlaceResult struct {
	PlaceID     string   `json:"placeId"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
}

type WhopUser struct {
	ID       string
	Email    string
	Username string
	Name     string
}

// Membership is the subset of a billing membership payload the service acts on.
type Membership struct {
	ID     string
	UserID string
	PlanID string
	Status string
	Email  string
	Valid  bool
}

type Payment struct {
	ID           string
	UserID       string
	MembershipID string
	Amount       float64
	Currency     string
	Status       string
}

// WebhookEvent is a verified provider event before dispatch.
type WebhookEvent struct {
	Type      string
	Data      map[string]any
	CreatedAt string
	Raw       []byte
}

// Email is a rendered message ready for any transport.
type Email struct {
	Kind    EmailKind
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

type EmailKind string

const (
	EmailReviewRequest EmailKind = "review_request"
	EmailNudge         EmailKind = "nudge"
	EmailDemo          EmailKind = "demo"
)
