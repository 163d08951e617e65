package domain

import (
	"net/url"
	"time"
)

// Ratings at or below InterceptThreshold are kept private.
const InterceptThreshold = 3

func ShouldIntercept(rating int) bool { return rating <= InterceptThreshold }

type Review struct {
	ID                     string
	ClientID               string
	AccountID              string
	Rating                 int
	Text                   *string
	PhotoURL               *string
	VideoURL               *string
	PostedToGoogle         bool
	GoogleReviewURL        *string
	WasIntercepted         bool
	InterceptCallRequested bool
	InterceptResolved      bool
	InterceptNotes         *string
	CreatedAt              time.Time
}

func GoogleReviewURL(placeID string) string {
	return "https://search.google.com/local/writereview?placeid=" + url.QueryEscape(placeID)
}
