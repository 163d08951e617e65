package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

type accountRow struct {
	ID                        string         `db:"id"`
	WhopUserID                sql.NullString `db:"whop_user_id"`
	WhopMembershipID          sql.NullString `db:"whop_membership_id"`
	Plan                      string         `db:"plan"`
	MembershipActive          bool           `db:"membership_active"`
	BusinessName              string         `db:"business_name"`
	Email                     string         `db:"email"`
	Phone                     sql.NullString `db:"phone"`
	IndustryTemplateID        sql.NullString `db:"industry_template_id"`
	GooglePlaceID             sql.NullString `db:"google_place_id"`
	LogoURL                   sql.NullString `db:"logo_url"`
	PrimaryColor              string         `db:"primary_color"`
	CustomCelebrationHeadline sql.NullString `db:"custom_celebration_headline"`
	CustomCelebrationBody     sql.NullString `db:"custom_celebration_body"`
	CustomReviewAsk           sql.NullString `db:"custom_review_ask"`
	CustomReferralHeadline    sql.NullString `db:"custom_referral_headline"`
	CustomReferralBody        sql.NullString `db:"custom_referral_body"`
	MonthlyRequestLimit       int            `db:"monthly_request_limit"`
	RequestsUsedThisMonth     int            `db:"requests_used_this_month"`
	BillingCycleStart         sql.NullTime   `db:"billing_cycle_start"`
	SMSEnabled                bool           `db:"sms_enabled"`
	VideoEnabled              bool           `db:"video_enabled"`
	WhiteLabel                bool           `db:"white_label"`
	AutoNudgesEnabled         bool           `db:"auto_nudges_enabled"`
	ThankYouVideoURL          sql.NullString `db:"thank_you_video_url"`
	OnboardingCompletedAt     sql.NullTime   `db:"onboarding_completed_at"`
	CreatedAt                 time.Time      `db:"created_at"`
	UpdatedAt                 time.Time      `db:"updated_at"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:                 r.ID,
		WhopUserID:         ptrNullStr(r.WhopUserID),
		WhopMembershipID:   ptrNullStr(r.WhopMembershipID),
		Plan:               domain.Plan(r.Plan),
		MembershipActive:   r.MembershipActive,
		BusinessName:       r.BusinessName,
		Email:              r.Email,
		Phone:              ptrNullStr(r.Phone),
		IndustryTemplateID: ptrNullStr(r.IndustryTemplateID),
		GooglePlaceID:      ptrNullStr(r.GooglePlaceID),
		LogoURL:            ptrNullStr(r.LogoURL),
		PrimaryColor:       r.PrimaryColor,
		Copy: domain.CopyOverrides{
			CelebrationHeadline: ptrNullStr(r.CustomCelebrationHeadline),
			CelebrationBody:     ptrNullStr(r.CustomCelebrationBody),
			ReviewAsk:           ptrNullStr(r.CustomReviewAsk),
			ReferralHeadline:    ptrNullStr(r.CustomReferralHeadline),
			ReferralBody:        ptrNullStr(r.CustomReferralBody),
		},
		MonthlyRequestLimit:   r.MonthlyRequestLimit,
		RequestsUsedThisMonth: r.RequestsUsedThisMonth,
		BillingCycleStart:     ptrNullTime(r.BillingCycleStart),
		SMSEnabled:            r.SMSEnabled,
		VideoEnabled:          r.VideoEnabled,
		WhiteLabel:            r.WhiteLabel,
		AutoNudgesEnabled:     r.AutoNudgesEnabled,
		ThankYouVideoURL:      ptrNullStr(r.ThankYouVideoURL),
		OnboardingCompletedAt: ptrNullTime(r.OnboardingCompletedAt),
		CreatedAt:             r.CreatedAt.UTC(),
		UpdatedAt:             r.UpdatedAt.UTC(),
	}
}

// accountArgs returns the values for every mutable column, in
// accountMutableColumns order.
func accountArgs(a domain.Account) []any {
	return []any{
		valStr(a.WhopUserID),
		valStr(a.WhopMembershipID),
		string(a.Plan),
		a.MembershipActive,
		a.BusinessName,
		a.Email,
		valStr(a.Phone),
		valStr(a.IndustryTemplateID),
		valStr(a.GooglePlaceID),
		valStr(a.LogoURL),
		a.Color(),
		valStr(a.Copy.CelebrationHeadline),
		valStr(a.Copy.CelebrationBody),
		valStr(a.Copy.ReviewAsk),
		valStr(a.Copy.ReferralHeadline),
		valStr(a.Copy.ReferralBody),
		a.MonthlyRequestLimit,
		a.RequestsUsedThisMonth,
		valTime(a.BillingCycleStart),
		a.SMSEnabled,
		a.VideoEnabled,
		a.WhiteLabel,
		a.AutoNudgesEnabled,
		valStr(a.ThankYouVideoURL),
		valTime(a.OnboardingCompletedAt),
	}
}

func (r *Repo) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Plan == "" {
		a.ApplyPlan(domain.PlanStarter)
	}
	ts := now()
	a.CreatedAt, a.UpdatedAt = ts, ts
	args := append([]any{a.ID}, accountArgs(*a)...)
	args = append(args, ts, ts)
	if _, err := r.q.ExecContext(ctx, insertAccountSQL, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("account: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *Repo) getAccount(ctx context.Context, query string, arg any) (domain.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.Account{}, notFound(err, "account")
	}
	return row.toDomain(), nil
}

func (r *Repo) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return r.getAccount(ctx, selectAccountSQL+" WHERE id = ?", id)
}

func (r *Repo) GetAccountByWhopUser(ctx context.Context, whopUserID string) (domain.Account, error) {
	return r.getAccount(ctx, selectAccountSQL+" WHERE whop_user_id = ?", whopUserID)
}

func (r *Repo) UpdateAccount(ctx context.Context, a domain.Account) error {
	args := append(accountArgs(a), now(), a.ID)
	_, err := r.q.ExecContext(ctx, updateAccountSQL, args...)
	if isDuplicate(err) {
		return fmt.Errorf("account: %w", domain.ErrConflict)
	}
	return err
}

func (r *Repo) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET requests_used_this_month = requests_used_this_month + 1, updated_at = ? WHERE id = ?`,
		now(), id)
	return err
}

func (r *Repo) ResetBillingCycle(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET requests_used_this_month = 0, billing_cycle_start = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), now(), id)
	return err
}
