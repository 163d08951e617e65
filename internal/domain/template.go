package domain

import "time"

type IndustryTemplate struct {
	ID                  string
	Slug                string
	Name                string
	Category            string
	CelebrationHeadline string
	CelebrationBody     string
	ReviewAsk           string
	GoogleHeadline      string
	GoogleSubhead       string
	ReferralHeadline    string
	ReferralBody        string
	Icon                *string
	IsActive            bool
	SortOrder           int
	CreatedAt           time.Time
}

// TemplateCopy is the copy shown on the review page after overrides resolve.
type TemplateCopy struct {
	CelebrationHeadline string `json:"celebrationHeadline"`
	CelebrationBody     string `json:"celebrationBody"`
	ReviewAsk           string `json:"reviewAsk"`
	GoogleHeadline      string `json:"googleHeadline"`
	GoogleSubhead       string `json:"googleSubhead"`
	ReferralHeadline    string `json:"referralHeadline"`
	ReferralBody        string `json:"referralBody"`
}

// ResolveCopy layers account overrides over t, falling back to def when the
// account has no industry template.
func ResolveCopy(a Account, t *IndustryTemplate, def IndustryTemplate) TemplateCopy {
	base := def
	if t != nil {
		base = *t
	}
	pick := func(override *string, fallback string) string {
		if override != nil && *override != "" {
			return *override
		}
		return fallback
	}
	return TemplateCopy{
		CelebrationHeadline: pick(a.Copy.CelebrationHeadline, base.CelebrationHeadline),
		CelebrationBody:     pick(a.Copy.CelebrationBody, base.CelebrationBody),
		ReviewAsk:           pick(a.Copy.ReviewAsk, base.ReviewAsk),
		GoogleHeadline:      base.GoogleHeadline,
		GoogleSubhead:       base.GoogleSubhead,
		ReferralHeadline:    pick(a.Copy.ReferralHeadline, base.ReferralHeadline),
		ReferralBody:        pick(a.Copy.ReferralBody, base.ReferralBody),
	}
}
