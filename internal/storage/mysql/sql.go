package mysql

// -----------------------------------------------------------------------------
// ACCOUNTS
// -----------------------------------------------------------------------------

const accountMutableColumns = `whop_user_id, whop_membership_id, plan, membership_active,
  business_name, email, phone, industry_template_id, google_place_id, logo_url,
  primary_color, custom_celebration_headline, custom_celebration_body,
  custom_review_ask, custom_referral_headline, custom_referral_body,
  monthly_request_limit, requests_used_this_month, billing_cycle_start,
  sms_enabled, video_enabled, white_label, auto_nudges_enabled,
  thank_you_video_url, onboarding_completed_at`

const insertAccountSQL = `
INSERT INTO accounts
  (id, ` + accountMutableColumns + `, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateAccountSQL = `
UPDATE accounts SET
  whop_user_id                = ?,
  whop_membership_id          = ?,
  plan                        = ?,
  membership_active           = ?,
  business_name               = ?,
  email                       = ?,
  phone                       = ?,
  industry_template_id        = ?,
  google_place_id             = ?,
  logo_url                    = ?,
  primary_color               = ?,
  custom_celebration_headline = ?,
  custom_celebration_body     = ?,
  custom_review_ask           = ?,
  custom_referral_headline    = ?,
  custom_referral_body        = ?,
  monthly_request_limit       = ?,
  requests_used_this_month    = ?,
  billing_cycle_start         = ?,
  sms_enabled                 = ?,
  video_enabled               = ?,
  white_label                 = ?,
  auto_nudges_enabled         = ?,
  thank_you_video_url         = ?,
  onboarding_completed_at     = ?,
  updated_at                  = ?
WHERE id = ?
`

const selectAccountSQL = `SELECT id, ` + accountMutableColumns + `, created_at, updated_at FROM accounts`

// -----------------------------------------------------------------------------
// CLIENTS
// -----------------------------------------------------------------------------

const clientColumns = `id, account_id, name, email, phone, token, status, source,
  sent_at, opened_at, reviewed_at, nudge1_sent_at, nudge2_sent_at, nudge3_sent_at,
  expires_at, created_at`

const insertClientSQL = `
INSERT INTO clients
  (` + clientColumns + `)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectClientSQL = `SELECT ` + clientColumns + ` FROM clients`

// Candidates are ordered oldest send first so a bounded batch drains fairly.
// Each stage is only eligible once the previous nudge has gone out.
const selectNudgeCandidatesSQL = `
SELECT
  c.id, c.account_id, c.name, c.email, c.phone, c.token, c.status, c.source,
  c.sent_at, c.opened_at, c.reviewed_at, c.nudge1_sent_at, c.nudge2_sent_at,
  c.nudge3_sent_at, c.expires_at, c.created_at,
  a.business_name AS business_name,
  a.email         AS account_email
FROM clients c
JOIN accounts a ON a.id = c.account_id
WHERE a.auto_nudges_enabled = TRUE
  AND a.membership_active = TRUE
  AND c.status IN ('sent', 'clicked')
  AND c.email IS NOT NULL
  AND c.sent_at IS NOT NULL
  AND (c.expires_at IS NULL OR c.expires_at > ?)
  AND (
       (c.nudge1_sent_at IS NULL AND c.sent_at <= ?)
    OR (c.nudge1_sent_at IS NOT NULL AND c.nudge2_sent_at IS NULL AND c.sent_at <= ?)
    OR (c.nudge2_sent_at IS NOT NULL AND c.nudge3_sent_at IS NULL AND c.sent_at <= ?)
  )
ORDER BY c.sent_at ASC
LIMIT ?
`

const selectExpiredClientsSQL = `
SELECT id, account_id
FROM clients
WHERE status IN ('pending', 'sent', 'clicked')
  AND (
       (expires_at IS NOT NULL AND expires_at < ?)
    OR (expires_at IS NULL AND sent_at IS NOT NULL AND sent_at < ?)
  )
FOR UPDATE
`

const expireClientsSQL = `
UPDATE clients
SET status = 'expired'
WHERE id IN (?)
  AND status IN ('pending', 'sent', 'clicked')
`

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

// Note: `text` is reserved; keep it quoted everywhere.
const reviewColumns = "id, client_id, account_id, rating, `text`, photo_url, video_url,\n" +
	"  posted_to_google, google_review_url, was_intercepted, intercept_call_requested,\n" +
	"  intercept_resolved, intercept_notes, created_at"

const insertReviewSQL = "INSERT INTO reviews\n  (" + reviewColumns + ")\nVALUES\n  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const selectReviewSQL = "SELECT " + reviewColumns + " FROM reviews"

// -----------------------------------------------------------------------------
// REFERRALS
// -----------------------------------------------------------------------------

const referralColumns = `id, client_id, account_id, referred_name, referred_phone,
  referred_email, referred_notes, status, became_client, became_client_at, created_at`

const insertReferralSQL = `
INSERT INTO referrals
  (` + referralColumns + `)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectReferralSQL = `SELECT ` + referralColumns + ` FROM referrals`

const updateReferralSQL = `
UPDATE referrals SET
  referred_name    = ?,
  referred_phone   = ?,
  referred_email   = ?,
  referred_notes   = ?,
  status           = ?,
  became_client    = ?,
  became_client_at = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// USAGE
// -----------------------------------------------------------------------------

const insertUsageSQL = `
INSERT INTO usage_events
  (id, account_id, event_type, related_id, amount_cents, billed, billed_at, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// TEMPLATES
// -----------------------------------------------------------------------------

const templateColumns = `id, slug, name, category, celebration_headline, celebration_body,
  review_ask, google_headline, google_subhead, referral_headline, referral_body,
  icon, is_active, sort_order, created_at`

// Slug is the natural key; the id of an existing row is kept.
const upsertTemplateSQL = `
INSERT INTO industry_templates
  (id, slug, name, category, celebration_headline, celebration_body,
   review_ask, google_headline, google_subhead, referral_headline, referral_body,
   icon, is_active, sort_order, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name                 = VALUES(name),
  category             = VALUES(category),
  celebration_headline = VALUES(celebration_headline),
  celebration_body     = VALUES(celebration_body),
  review_ask           = VALUES(review_ask),
  google_headline      = VALUES(google_headline),
  google_subhead       = VALUES(google_subhead),
  referral_headline    = VALUES(referral_headline),
  referral_body        = VALUES(referral_body),
  icon                 = VALUES(icon),
  is_active            = VALUES(is_active),
  sort_order           = VALUES(sort_order)
`

const selectTemplateSQL = `SELECT ` + templateColumns + ` FROM industry_templates`

// -----------------------------------------------------------------------------
// WEBHOOKS
// -----------------------------------------------------------------------------

const insertWebhookSQL = `
INSERT IGNORE INTO webhook_events
  (provider, event_key, event_type, payload, received_at)
VALUES
  (?, ?, ?, ?, ?)
`
