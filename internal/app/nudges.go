package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_hero/internal/domain"
)

type NudgeService struct {
	store   domain.Store
	mailer  domain.Mailer
	cache   domain.Cache
	appURL  string
	workers int64
	batch   int
	now     Clock
	onSweep func(NudgeReport)
}

func NewNudgeService(s domain.Store, m domain.Mailer, c domain.Cache, appURL string, workers, batch int, now Clock) *NudgeService {
	if workers <= 0 {
		workers = 4
	}
	if batch <= 0 {
		batch = 500
	}
	if now == nil {
		now = SystemClock
	}
	return &NudgeService{store: s, mailer: m, cache: c, appURL: appURL, workers: int64(workers), batch: batch, now: now}
}

// OnSweep registers fn to receive every sweep report, e.g. for metrics.
func (s *NudgeService) OnSweep(fn func(NudgeReport)) { s.onSweep = fn }

type NudgeReport struct {
	Expired    int64 `json:"expired"`
	Candidates int   `json:"candidates"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
}

// Sweep expires stale requests, then sends every reminder that is due.
func (s *NudgeService) Sweep(ctx context.Context) (NudgeReport, error) {
	var rep NudgeReport
	now := s.now()

	expired, err := s.store.ExpireClients(ctx, now)
	if err != nil {
		return rep, err
	}
	rep.Expired = int64(len(expired))
	seen := make(map[string]bool, len(expired))
	for _, id := range expired {
		if !seen[id] {
			seen[id] = true
			invalidateDashboard(ctx, s.cache, id)
		}
	}

	if s.mailer == nil {
		log.Warn().Msg("mailer not configured, skipping nudges")
		return rep, nil
	}
	cands, err := s.store.ListNudgeCandidates(ctx, now, s.batch)
	if err != nil {
		return rep, err
	}
	rep.Candidates = len(cands)

	var sent, failed, skipped atomic.Int64
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for _, c := range cands {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(c domain.NudgeCandidate) {
			defer wg.Done()
			defer sem.Release(1)

			switch err := s.nudge(ctx, c, now); {
			case err == nil:
				sent.Add(1)
			case errors.Is(err, errNotDue), errors.Is(err, domain.ErrConflict):
				skipped.Add(1)
			default:
				failed.Add(1)
				log.Warn().Err(err).Str("client_id", c.Client.ID).Msg("nudge failed")
			}
		}(c)
	}
	wg.Wait()

	rep.Sent, rep.Failed, rep.Skipped = sent.Load(), failed.Load(), skipped.Load()
	log.Info().
		Int64("expired", rep.Expired).
		Int("candidates", rep.Candidates).
		Int64("sent", rep.Sent).
		Int64("failed", rep.Failed).
		Int64("skipped", rep.Skipped).
		Msg("nudge sweep done")
	if s.onSweep != nil {
		s.onSweep(rep)
	}
	return rep, ctx.Err()
}

var errNotDue = errors.New("nudge not due")

// nudge claims the stage before sending, so a crash or a racing sweep can
// drop a reminder but never send it twice.
func (s *NudgeService) nudge(ctx context.Context, c domain.NudgeCandidate, now time.Time) error {
	n, ok := c.Client.DueNudge(now)
	if !ok {
		return errNotDue
	}
	if err := s.store.MarkNudged(ctx, c.Client.ID, n, now); err != nil {
		return err
	}
	msg, err := renderReviewRequest(domain.EmailNudge, deref(c.Client.Email), c.AccountEmail,
		c.Client.Name, c.BusinessName, reviewLink(s.appURL, c.Client.Token), n)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	log.Info().Str("client_id", c.Client.ID).Int("nudge", n).Msg("nudge sent")
	invalidateDashboard(ctx, s.cache, c.Client.AccountID)
	return nil
}

// Run sweeps every interval until ctx is done.
func (s *NudgeService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("nudge sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
