package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"review_hero/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// TLS requires STARTTLS; otherwise it is used when offered.
	TLS bool
}

type SMTP struct {
	cfg SMTPConfig
}

var _ domain.Mailer = (*SMTP)(nil)

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and sender are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{cfg: cfg}, nil
}

func (s *SMTP) Send(ctx context.Context, e domain.Email) error {
	m, err := buildMsg(s.cfg.From, e)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSConfig(&tls.Config{ServerName: s.cfg.Host}),
	}
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client (host=%s port=%d): %w", s.cfg.Host, s.cfg.Port, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send (host=%s port=%d): %w", s.cfg.Host, s.cfg.Port, err)
	}
	return nil
}

// buildMsg renders a multipart message: plain text first, HTML alternative.
func buildMsg(from string, e domain.Email) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(e.To); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	if e.ReplyTo != "" {
		if err := m.ReplyTo(e.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp reply-to: %w", err)
		}
	}
	m.Subject(e.Subject)
	if e.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, e.Text)
		m.AddAlternativeString(mail.TypeTextHTML, e.HTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, e.HTML)
	}
	if e.Kind != "" {
		m.SetGenHeader("X-Review-Hero-Kind", string(e.Kind))
	}
	return m, nil
}
