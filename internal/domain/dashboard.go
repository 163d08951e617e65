package domain

import "time"

type DashboardStats struct {
	TotalSent         int    `json:"totalSent"`
	TotalReviewed     int    `json:"totalReviewed"`
	TotalClicked      int    `json:"totalClicked"`
	ReviewsThisMonth  int    `json:"reviewsThisMonth"`
	RequestsThisMonth int    `json:"requestsThisMonth"`
	ConversionRate    int    `json:"conversionRate"`
	AvgRating         string `json:"avgRating"`
	InterceptedCount  int    `json:"interceptedCount"`
	ReferralsCount    int    `json:"referralsCount"`
	RequestsUsed      int    `json:"requestsUsed"`
	RequestLimit      int    `json:"requestLimit"`
	UnbilledCents     int    `json:"unbilledCents"`
}

type DashboardReview struct {
	ID                string    `json:"id"`
	Rating            int       `json:"rating"`
	Text              *string   `json:"text"`
	ClientName        string    `json:"clientName"`
	ClientEmail       *string   `json:"clientEmail"`
	PostedToGoogle    bool      `json:"postedToGoogle"`
	WasIntercepted    bool      `json:"wasIntercepted"`
	InterceptResolved bool      `json:"interceptResolved"`
	CreatedAt         time.Time `json:"createdAt"`
}

type DashboardRequest struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      *string      `json:"email"`
	Status     ClientStatus `json:"status"`
	SentAt     *time.Time   `json:"sentAt"`
	OpenedAt   *time.Time   `json:"openedAt"`
	ReviewedAt *time.Time   `json:"reviewedAt"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type ActivityType string

const (
	ActivityCreated  ActivityType = "created"
	ActivitySent     ActivityType = "sent"
	ActivityClicked  ActivityType = "clicked"
	ActivityReviewed ActivityType = "reviewed"
)

type Activity struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	ClientName string       `json:"clientName"`
	Timestamp  time.Time    `json:"timestamp"`
}

type Dashboard struct {
	Stats      DashboardStats     `json:"stats"`
	Reviews    []DashboardReview  `json:"reviews"`
	Requests   []DashboardRequest `json:"requests"`
	Activities []Activity         `json:"activities"`
}
