package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

const maxBodyBytes = 1 << 20

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response body")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// writeError maps service errors onto problem responses. Unexpected errors
// are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Invalid input", Status: http.StatusBadRequest,
			Detail: "one or more fields are invalid", Errors: verr.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrExpired):
		writeProblem(w, http.StatusGone, "Gone", "this link has expired")
	case errors.Is(err, domain.ErrLimitReached):
		writeProblem(w, http.StatusForbidden, "Limit Reached", "monthly request limit reached, upgrade your plan to send more")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
	case errors.Is(err, domain.ErrNotConfigured):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		log.Error().Err(err).Str("route", routePattern(r)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// decodeJSON reads a JSON object body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.NewValidationError("body", "is too large")
	}
	return domain.NewValidationError("body", "must be valid JSON")
}
