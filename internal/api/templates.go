package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/http/respond"
	"gitea.jw6.us/james/calllog/internal/schema"
)

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates.List(r.Context())
	if err != nil {
		errors.InternalError(w, r, err, "Failed to fetch templates")
		return
	}
	respond.JSON(w, http.StatusOK, templates)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := schema.ParseNewTemplate(body)
	if err != nil {
		rejectInvalid(w, r, err, "Failed to create template")
		return
	}

	tmpl, err := h.store.Templates.Create(r.Context(), in)
	if err != nil {
		errors.InternalError(w, r, err, "Failed to create template")
		return
	}
	respond.JSON(w, http.StatusCreated, tmpl)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.Templates.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.InternalError(w, r, err, "Failed to delete template")
		return
	}
	if !deleted {
		errors.NotFound(w, "Template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
