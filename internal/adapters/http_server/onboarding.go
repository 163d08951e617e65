package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"review_hero/internal/app"
)

type accountRef struct {
	AccountID string `json:"accountId"`
}

func (h *Handlers) saveProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		app.ProfileInput
		accountRef
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.optionalAccount(r, body.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.Onboarding.SaveProfile(r.Context(), existing, body.ProfileInput)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing == "" {
		h.startSession(w, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "accountId": id})
}

func (h *Handlers) saveGooglePlace(w http.ResponseWriter, r *http.Request) {
	var body struct {
		app.GooglePlaceInput
		accountRef
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, body.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Onboarding.SaveGooglePlace(r.Context(), id, body.GooglePlaceInput); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "googlePlaceId": body.GooglePlaceID})
}

func (h *Handlers) sendDemo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		app.DemoInput
		accountRef
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, body.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Onboarding.Demo(r.Context(), id, body.DemoInput)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var body accountRef
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, body.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Onboarding.Complete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// startSession signs the caller in as accountID. Failures only cost the
// caller a cookie.
func (h *Handlers) startSession(w http.ResponseWriter, accountID string) bool {
	if h.Sessions == nil {
		return false
	}
	tok, exp, err := h.Sessions.Issue(accountID)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("issue session failed")
		return false
	}
	http.SetCookie(w, h.Sessions.Cookie(tok, exp))
	return true
}
