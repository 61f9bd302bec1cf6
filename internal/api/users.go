package api

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/http/respond"
	"gitea.jw6.us/james/calllog/internal/schema"
	"gitea.jw6.us/james/calllog/internal/store"
)

// CreateUser registers a user. The password is stored as a bcrypt hash and
// never returned.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := schema.ParseNewUser(body)
	if err != nil {
		rejectInvalid(w, r, err, "Failed to create user")
		return
	}

	hashed, err := h.hash(in.Password)
	if err != nil {
		errors.InternalError(w, r, err, "Failed to create user")
		return
	}
	in.Password = hashed

	user, err := h.store.Users.Create(r.Context(), in)
	if err != nil {
		if stderrors.Is(err, store.ErrConflict) {
			errors.Conflict(w, "Username already exists")
			return
		}
		errors.InternalError(w, r, err, "Failed to create user")
		return
	}
	errors.LogInfo(r, "registered user "+user.Username)
	respond.JSON(w, http.StatusCreated, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			errors.NotFound(w, "User not found")
			return
		}
		errors.InternalError(w, r, err, "Failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}
