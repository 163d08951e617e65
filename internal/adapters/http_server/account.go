package httpserver

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"review_hero/internal/app"
	"review_hero/internal/domain"
)

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Dashboard.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) updateAccount(w http.ResponseWriter, r *http.Request) {
	var in app.UpdateAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.Accounts.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// multipart overhead allowed on top of the logo itself
const logoFormSlack = 64 << 10

func (h *Handlers) uploadLogo(w http.ResponseWriter, r *http.Request) {
	id, err := h.accountFor(r, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxLogoBytes+logoFormSlack)
	file, hdr, err := r.FormFile("logo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, domain.NewValidationError("logo", "must be at most 2MB"))
			return
		}
		writeError(w, r, domain.NewValidationError("logo", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, app.MaxLogoBytes+1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.Accounts.UploadLogo(r.Context(), id, logoContentType(hdr.Header.Get("Content-Type"), data), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// logoContentType trusts the part header unless it is missing or generic.
func logoContentType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func (h *Handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Templates.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Templates.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, cats)
}
