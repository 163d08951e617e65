package email

import (
	"context"

	"github.com/rs/zerolog/log"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/domain"
)

type metered struct {
	next      domain.Mailer
	transport string
}

// Metered counts every send by kind and outcome.
func Metered(next domain.Mailer, transport string) domain.Mailer {
	return &metered{next: next, transport: transport}
}

func (m *metered) Send(ctx context.Context, e domain.Email) error {
	err := m.next.Send(ctx, e)
	observability.ObserveEmail(string(e.Kind), err)
	if err != nil {
		log.Warn().Err(err).Str("transport", m.transport).Str("kind", string(e.Kind)).Msg("email send failed")
	}
	return err
}
