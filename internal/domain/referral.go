package domain

import "time"

type ReferralStatus string

const (
	ReferralNew       ReferralStatus = "new"
	ReferralContacted ReferralStatus = "contacted"
	ReferralConverted ReferralStatus = "converted"
	ReferralLost      ReferralStatus = "lost"
)

func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralNew, ReferralContacted, ReferralConverted, ReferralLost:
		return true
	}
	return false
}

type Referral struct {
	ID             string         `json:"id"`
	ClientID       string         `json:"clientId"`
	AccountID      string         `json:"accountId"`
	ReferredName   string         `json:"referredName"`
	ReferredPhone  *string        `json:"referredPhone"`
	ReferredEmail  *string        `json:"referredEmail"`
	ReferredNotes  *string        `json:"referredNotes"`
	Status         ReferralStatus `json:"status"`
	BecameClient   *bool          `json:"becameClient"`
	BecameClientAt *time.Time     `json:"becameClientAt"`
	CreatedAt      time.Time      `json:"createdAt"`
}
