package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/app"
	"review_hero/internal/domain"
)

func (h *Handlers) searchPlaces(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, domain.NewValidationError("q", "is required"))
		return
	}
	results, err := h.Places.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handlers) sendRequest(w http.ResponseWriter, r *http.Request) {
	var in app.SendRequestInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, in.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.AccountID = id
	res, err := h.Requests.Send(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) clientView(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, domain.NewValidationError("token", "is required"))
		return
	}
	view, err := h.Reviews.ClientView(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var in app.SubmitReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Reviews.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveReview(res.WasIntercepted)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) resolveIntercept(w http.ResponseWriter, r *http.Request) {
	var in app.ResolveInterceptInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Reviews.ResolveIntercept(r.Context(), id, chi.URLParam(r, "id"), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
