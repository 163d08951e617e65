package httpserver

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/adapters/whop"
	"review_hero/internal/app"
	"review_hero/internal/domain"
)

const stateCookie = "rh_oauth_state"

func (h *Handlers) authStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	target, err := h.Auth.AuthURL(state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handlers) authCallback(w http.ResponseWriter, r *http.Request) {
	fail := func(reason string) { http.Redirect(w, r, "/?error="+reason, http.StatusFound) }

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Warn().Str("error", e).Str("description", q.Get("error_description")).Msg("whop oauth denied")
		fail("auth_failed")
		return
	}
	code := q.Get("code")
	if code == "" {
		fail("no_code")
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(q.Get("state"))) != 1 {
		log.Warn().Bool("cookie", err == nil).Msg("whop oauth state mismatch")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid oauth state")
		return
	}

	acc, err := h.Auth.Login(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("whop login failed")
		if errors.Is(err, app.ErrTokenExchange) {
			fail("token_exchange_failed")
			return
		}
		fail("callback_failed")
		return
	}
	if !h.startSession(w, acc.ID) {
		fail("callback_failed")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth", MaxAge: -1})

	next := "/dashboard"
	if acc.OnboardingCompletedAt == nil {
		next = "/onboarding"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if h.Sessions != nil {
		http.SetCookie(w, h.Sessions.ClearCookie())
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) whopWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, domain.NewValidationError("body", "is too large"))
		return
	}
	if err := whop.VerifySignature(h.WebhookSecret, body, r.Header.Get(whop.SignatureHeader)); err != nil {
		observability.ObserveWebhook("unknown", "rejected")
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid webhook signature")
		return
	}
	ev, err := whop.ParseEvent(body)
	if err != nil {
		observability.ObserveWebhook("unknown", "rejected")
		writeError(w, r, err)
		return
	}
	dup, err := h.Billing.HandleWebhook(r.Context(), ev)
	if err != nil {
		observability.ObserveWebhook(ev.Type, "error")
		log.Error().Err(err).Str("type", ev.Type).Msg("webhook handling failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "webhook processing failed")
		return
	}
	outcome := "processed"
	if dup {
		outcome = "duplicate"
	}
	observability.ObserveWebhook(ev.Type, outcome)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handlers) seed(w http.ResponseWriter, r *http.Request) {
	if h.Production {
		writeProblem(w, http.StatusForbidden, "Forbidden", "Not allowed in production")
		return
	}
	res, err := h.Seed.Demo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
