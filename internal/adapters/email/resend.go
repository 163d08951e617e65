// Package email delivers rendered messages through Resend or SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"review_hero/internal/adapters/restclient"
	"review_hero/internal/domain"
)

const DefaultResendBase = "https://api.resend.com"

type Resend struct {
	rc   *restclient.Client
	from string
}

var _ domain.Mailer = (*Resend)(nil)

func NewResend(base, apiKey, from string, rps int) (*Resend, error) {
	if apiKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if from == "" {
		return nil, errors.New("sender address is required")
	}
	if base == "" {
		base = DefaultResendBase
	}
	rc := restclient.New("resend", base, restclient.Options{
		RPS:    rps,
		Header: http.Header{"Authorization": {"Bearer " + apiKey}},
	})
	return &Resend{rc: rc, from: from}, nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
	Tags    []tag    `json:"tags,omitempty"`
}

type tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Send posts one message. Every call carries a fresh Idempotency-Key so a
// retried request is delivered at most once.
func (r *Resend) Send(ctx context.Context, e domain.Email) error {
	body := resendRequest{
		From:    r.from,
		To:      []string{e.To},
		ReplyTo: e.ReplyTo,
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    e.Text,
	}
	if e.Kind != "" {
		body.Tags = []tag{{Name: "kind", Value: string(e.Kind)}}
	}
	var out struct {
		ID string `json:"id"`
	}
	err := r.rc.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/emails",
		Header: http.Header{"Idempotency-Key": {uuid.NewString()}},
		Body:   body,
	}, &out)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
