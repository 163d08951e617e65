package whop

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"review_hero/internal/domain"
)

const SignatureHeader = "whop-signature"

var ErrBadSignature = errors.New("whop: invalid webhook signature")

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

// VerifySignature checks sig against the body in constant time. An empty
// secret or signature never verifies.
func VerifySignature(secret string, body []byte, sig string) error {
	sig = strings.TrimSpace(sig)
	if secret == "" || sig == "" {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(sig), []byte(Sign(secret, body))) {
		return ErrBadSignature
	}
	return nil
}

type envelope struct {
	Type      string         `json:"type"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"created_at"`
}

// ParseEvent decodes a verified webhook body. Newer payloads name the event
// "action" instead of "type".
func ParseEvent(body []byte) (domain.WebhookEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.WebhookEvent{}, domain.NewValidationError("body", "must be a JSON object")
	}
	typ := env.Type
	if typ == "" {
		typ = env.Action
	}
	if typ == "" {
		return domain.WebhookEvent{}, domain.NewValidationError("type", "is required")
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return domain.WebhookEvent{Type: typ, Data: env.Data, CreatedAt: env.CreatedAt, Raw: body}, nil
}
