// Package httpserver exposes the Review Hero JSON API over chi.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"review_hero/internal/adapters/session"
	"review_hero/internal/app"
	"review_hero/internal/domain"
	"review_hero/internal/ratelimit"
)

type Handlers struct {
	Onboarding *app.OnboardingService
	Places     *app.PlacesService
	Requests   *app.RequestService
	Reviews    *app.ReviewService
	Referrals  *app.ReferralService
	Dashboard  *app.DashboardService
	Accounts   *app.AccountService
	Templates  *app.TemplateService
	Auth       *app.AuthService
	Billing    *app.BillingService
	Seed       *app.SeedService

	Sessions *session.Manager   // nil disables sign-in
	Limiter  *ratelimit.Limiter // nil disables rate limits

	// AuthRequired=false lets account-scoped routes fall back to an explicit
	// accountId when no session is presented.
	AuthRequired  bool
	Production    bool
	WebhookSecret string
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	limit := func(bucket string) func(http.Handler) http.Handler {
		return RateLimit(h.Limiter, bucket, nil)
	}

	s.mux.Route("/api", func(r chi.Router) {
		r.Use(Session(h.Sessions))

		r.With(limit(ratelimit.API)).Route("/onboarding", func(r chi.Router) {
			r.Post("/profile", h.saveProfile)
			r.Post("/google", h.saveGooglePlace)
			r.Post("/demo", h.sendDemo)
			r.Post("/complete", h.completeOnboarding)
		})
		r.With(limit(ratelimit.API)).Get("/google/search", h.searchPlaces)

		r.With(RateLimit(h.Limiter, ratelimit.PublicForms, sendKey)).Post("/clients/send", h.sendRequest)

		r.With(limit(ratelimit.PublicPages)).Get("/reviews/client", h.clientView)
		r.With(limit(ratelimit.API)).Post("/reviews/submit", h.submitReview)
		r.Patch("/reviews/{id}/intercept", h.resolveIntercept)

		r.With(limit(ratelimit.PublicForms)).Post("/referrals/submit", h.submitReferral)
		r.Get("/referrals", h.listReferrals)
		r.Patch("/referrals/{id}", h.updateReferral)

		r.Get("/dashboard", h.dashboard)

		r.Get("/account", h.getAccount)
		r.Patch("/account", h.updateAccount)
		r.Post("/account/logo", h.uploadLogo)

		r.Get("/templates", h.listTemplates)
		r.Get("/templates/categories", h.listCategories)

		r.Get("/auth/whop", h.authStart)
		r.Get("/auth/whop/callback", h.authCallback)
		r.Post("/auth/logout", h.logout)

		r.With(limit(ratelimit.Webhooks)).Post("/webhooks/whop", h.whopWebhook)
		r.Get("/webhooks/whop", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/seed", h.seed)
	})
}

func sendKey(r *http.Request) string { return "send:" + clientIP(r) }

// accountFor resolves the account a request acts on. A session always wins
// and must match any explicit id; without one the explicit id is used only
// when authentication is not required.
func (h *Handlers) accountFor(r *http.Request, explicit string) (string, error) {
	id, err := h.optionalAccount(r, explicit)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	if h.AuthRequired {
		return "", fmt.Errorf("no session: %w", domain.ErrUnauthorized)
	}
	return "", domain.NewValidationError("accountId", "is required")
}

// optionalAccount is accountFor for routes that also serve anonymous callers;
// it returns "" when no account is identified.
func (h *Handlers) optionalAccount(r *http.Request, explicit string) (string, error) {
	if explicit != "" {
		if _, err := uuid.Parse(explicit); err != nil {
			return "", domain.NewValidationError("accountId", "must be a valid UUID")
		}
	}
	if sid := sessionAccount(r.Context()); sid != "" {
		if explicit != "" && explicit != sid {
			return "", fmt.Errorf("account %s does not belong to this session: %w", explicit, domain.ErrForbidden)
		}
		return sid, nil
	}
	if h.AuthRequired {
		return "", nil
	}
	return explicit, nil
}
