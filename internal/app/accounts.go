package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

const MaxLogoBytes = 2 << 20

var logoTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

type AccountService struct {
	store domain.Store
	cache domain.Cache
	logos domain.LogoStore
	now   Clock
}

// NewAccountService accepts a nil LogoStore; uploads then fail with
// ErrNotConfigured.
func NewAccountService(s domain.Store, c domain.Cache, logos domain.LogoStore, now Clock) *AccountService {
	if now == nil {
		now = SystemClock
	}
	return &AccountService{store: s, cache: c, logos: logos, now: now}
}

type AccountView struct {
	ID                    string         `json:"id"`
	Plan                  domain.Plan    `json:"plan"`
	MembershipActive      bool           `json:"membershipActive"`
	BusinessName          string         `json:"businessName"`
	Email                 string         `json:"email"`
	Phone                 *string        `json:"phone"`
	IndustryTemplateID    *string        `json:"industryTemplateId"`
	GooglePlaceID         *string        `json:"googlePlaceId"`
	LogoURL               *string        `json:"logoUrl"`
	PrimaryColor          string         `json:"primaryColor"`
	CustomCopy            CustomCopyView `json:"customCopy"`
	MonthlyRequestLimit   int            `json:"monthlyRequestLimit"`
	RequestsUsedThisMonth int            `json:"requestsUsedThisMonth"`
	BillingCycleStart     *time.Time     `json:"billingCycleStart"`
	SMSEnabled            bool           `json:"smsEnabled"`
	VideoEnabled          bool           `json:"videoEnabled"`
	WhiteLabel            bool           `json:"whiteLabel"`
	AutoNudgesEnabled     bool           `json:"autoNudgesEnabled"`
	ThankYouVideoURL      *string        `json:"thankYouVideoUrl"`
	OnboardingCompletedAt *time.Time     `json:"onboardingCompletedAt"`
	CreatedAt             time.Time      `json:"createdAt"`
}

type CustomCopyView struct {
	CelebrationHeadline *string `json:"celebrationHeadline"`
	CelebrationBody     *string `json:"celebrationBody"`
	ReviewAsk           *string `json:"reviewAsk"`
	ReferralHeadline    *string `json:"referralHeadline"`
	ReferralBody        *string `json:"referralBody"`
}

func NewAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:                 a.ID,
		Plan:               a.Plan,
		MembershipActive:   a.MembershipActive,
		BusinessName:       a.BusinessName,
		Email:              a.Email,
		Phone:              a.Phone,
		IndustryTemplateID: a.IndustryTemplateID,
		GooglePlaceID:      a.GooglePlaceID,
		LogoURL:            a.LogoURL,
		PrimaryColor:       a.Color(),
		CustomCopy: CustomCopyView{
			CelebrationHeadline: a.Copy.CelebrationHeadline,
			CelebrationBody:     a.Copy.CelebrationBody,
			ReviewAsk:           a.Copy.ReviewAsk,
			ReferralHeadline:    a.Copy.ReferralHeadline,
			ReferralBody:        a.Copy.ReferralBody,
		},
		MonthlyRequestLimit:   a.MonthlyRequestLimit,
		RequestsUsedThisMonth: a.RequestsUsedThisMonth,
		BillingCycleStart:     a.BillingCycleStart,
		SMSEnabled:            a.SMSEnabled,
		VideoEnabled:          a.VideoEnabled,
		WhiteLabel:            a.WhiteLabel,
		AutoNudgesEnabled:     a.AutoNudgesEnabled,
		ThankYouVideoURL:      a.ThankYouVideoURL,
		OnboardingCompletedAt: a.OnboardingCompletedAt,
		CreatedAt:             a.CreatedAt,
	}
}

func (s *AccountService) Get(ctx context.Context, id string) (AccountView, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return NewAccountView(a), nil
}

// UpdateAccountInput is a partial update; nil fields are left alone and
// empty strings clear optional fields. BusinessName can't be cleared.
type UpdateAccountInput struct {
	BusinessName        *string `json:"businessName" validate:"omitnil,nonblank,max=200"`
	Phone               *string `json:"phone" validate:"omitempty,max=20,phone"`
	PrimaryColor        *string `json:"primaryColor" validate:"omitempty,hexcolor6"`
	CelebrationHeadline *string `json:"celebrationHeadline" validate:"omitempty,max=200"`
	CelebrationBody     *string `json:"celebrationBody" validate:"omitempty,max=1000"`
	ReviewAsk           *string `json:"reviewAsk" validate:"omitempty,max=500"`
	ReferralHeadline    *string `json:"referralHeadline" validate:"omitempty,max=200"`
	ReferralBody        *string `json:"referralBody" validate:"omitempty,max=1000"`
	AutoNudgesEnabled   *bool   `json:"autoNudgesEnabled"`
	ThankYouVideoURL    *string `json:"thankYouVideoUrl" validate:"omitempty,http_url,max=2000"`
}

func (in UpdateAccountInput) touchesBranding() bool {
	return in.PrimaryColor != nil || in.CelebrationHeadline != nil || in.CelebrationBody != nil ||
		in.ReviewAsk != nil || in.ReferralHeadline != nil || in.ReferralBody != nil
}

func (s *AccountService) Update(ctx context.Context, id string, in UpdateAccountInput) (AccountView, error) {
	if err := validateInput(in); err != nil {
		return AccountView{}, err
	}
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	if in.touchesBranding() && !a.CanBrand() {
		return AccountView{}, fmt.Errorf("branding requires a growth plan or above: %w", domain.ErrForbidden)
	}
	if in.ThankYouVideoURL != nil && *in.ThankYouVideoURL != "" && !a.VideoEnabled {
		return AccountView{}, fmt.Errorf("thank-you video not included in plan: %w", domain.ErrForbidden)
	}

	if in.BusinessName != nil {
		a.BusinessName = strings.TrimSpace(*in.BusinessName)
	}
	if in.Phone != nil {
		a.Phone = emptyToNil(in.Phone)
	}
	if in.PrimaryColor != nil {
		a.PrimaryColor = *in.PrimaryColor
	}
	setCopy := func(dst **string, v *string) {
		if v != nil {
			*dst = emptyToNil(v)
		}
	}
	setCopy(&a.Copy.CelebrationHeadline, in.CelebrationHeadline)
	setCopy(&a.Copy.CelebrationBody, in.CelebrationBody)
	setCopy(&a.Copy.ReviewAsk, in.ReviewAsk)
	setCopy(&a.Copy.ReferralHeadline, in.ReferralHeadline)
	setCopy(&a.Copy.ReferralBody, in.ReferralBody)
	setCopy(&a.ThankYouVideoURL, in.ThankYouVideoURL)
	if in.AutoNudgesEnabled != nil {
		a.AutoNudgesEnabled = *in.AutoNudgesEnabled
	}

	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return AccountView{}, err
	}
	invalidateDashboard(ctx, s.cache, id)
	return NewAccountView(a), nil
}

// UploadLogo stores a branding logo and records its public URL.
func (s *AccountService) UploadLogo(ctx context.Context, id, contentType string, body io.Reader, size int64) (AccountView, error) {
	if s.logos == nil {
		return AccountView{}, fmt.Errorf("logo storage: %w", domain.ErrNotConfigured)
	}
	if !logoTypes[contentType] {
		return AccountView{}, domain.NewValidationError("logo", "must be a PNG, JPEG or WebP image")
	}
	if size <= 0 || size > MaxLogoBytes {
		return AccountView{}, domain.NewValidationError("logo", "must be at most 2MB")
	}
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	if !a.CanBrand() {
		return AccountView{}, fmt.Errorf("branding requires a growth plan or above: %w", domain.ErrForbidden)
	}
	url, err := s.logos.PutLogo(ctx, id, contentType, body, size)
	if err != nil {
		return AccountView{}, fmt.Errorf("upload logo: %w", err)
	}
	a.LogoURL = &url
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return AccountView{}, err
	}
	log.Info().Str("account_id", id).Msg("logo updated")
	return NewAccountView(a), nil
}
