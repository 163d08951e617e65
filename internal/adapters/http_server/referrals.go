package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/app"
	"review_hero/internal/domain"
)

func (h *Handlers) submitReferral(w http.ResponseWriter, r *http.Request) {
	var in app.SubmitReferralInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Referrals.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveReferral()
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) listReferrals(w http.ResponseWriter, r *http.Request) {
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	refs, err := h.Referrals.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if refs == nil {
		refs = []domain.Referral{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"referrals": refs})
}

func (h *Handlers) updateReferral(w http.ResponseWriter, r *http.Request) {
	var in app.UpdateReferralInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := h.Referrals.UpdateStatus(r.Context(), id, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}
