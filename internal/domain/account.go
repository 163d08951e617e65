package domain

import "time"

const DefaultPrimaryColor = "#6366F1"

type Plan string

const (
	PlanStarter      Plan = "starter"
	PlanGrowth       Plan = "growth"
	PlanScale        Plan = "scale"
	PlanPayPerResult Plan = "pay_per_result"
)

// PlanFeatures are the limits and flags copied onto an account whenever its
// plan changes. A MonthlyRequestLimit of 0 means unlimited.
type PlanFeatures struct {
	MonthlyRequestLimit int
	SMS                 bool
	Video               bool
	WhiteLabel          bool
	Branding            bool
}

var planFeatures = map[Plan]PlanFeatures{
	PlanStarter:      {MonthlyRequestLimit: 50},
	PlanGrowth:       {MonthlyRequestLimit: 200, SMS: true, Branding: true},
	PlanScale:        {MonthlyRequestLimit: 1000, SMS: true, Video: true, WhiteLabel: true, Branding: true},
	PlanPayPerResult: {MonthlyRequestLimit: 0, SMS: true, Branding: true},
}

func (p Plan) Valid() bool {
	_, ok := planFeatures[p]
	return ok
}

func (p Plan) Features() PlanFeatures {
	if f, ok := planFeatures[p]; ok {
		return f
	}
	return planFeatures[PlanStarter]
}

// CopyOverrides replace industry template copy when set.
type CopyOverrides struct {
	CelebrationHeadline *string
	CelebrationBody     *string
	ReviewAsk           *string
	ReferralHeadline    *string
	ReferralBody        *string
}

type Account struct {
	ID                    string
	WhopUserID            *string
	WhopMembershipID      *string
	Plan                  Plan
	MembershipActive      bool
	BusinessName          string
	Email                 string
	Phone                 *string
	IndustryTemplateID    *string
	GooglePlaceID         *string
	LogoURL               *string
	PrimaryColor          string
	Copy                  CopyOverrides
	MonthlyRequestLimit   int
	RequestsUsedThisMonth int
	BillingCycleStart     *time.Time
	SMSEnabled            bool
	VideoEnabled          bool
	WhiteLabel            bool
	AutoNudgesEnabled     bool
	ThankYouVideoURL      *string
	OnboardingCompletedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ApplyPlan switches the plan and resets the plan-derived limits and flags.
func (a *Account) ApplyPlan(p Plan) {
	f := p.Features()
	a.Plan = p
	a.MonthlyRequestLimit = f.MonthlyRequestLimit
	a.SMSEnabled = f.SMS
	a.VideoEnabled = f.Video
	a.WhiteLabel = f.WhiteLabel
}

func (a Account) CanBrand() bool { return a.Plan.Features().Branding }

func (a Account) Color() string {
	if a.PrimaryColor == "" {
		return DefaultPrimaryColor
	}
	return a.PrimaryColor
}

// NewAccount returns an account with the column defaults applied.
func NewAccount(businessName, email string) Account {
	a := Account{
		BusinessName:      businessName,
		Email:             email,
		PrimaryColor:      DefaultPrimaryColor,
		AutoNudgesEnabled: true,
		MembershipActive:  true,
	}
	a.ApplyPlan(PlanStarter)
	return a
}
