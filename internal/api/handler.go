// Package api implements the JSON endpoints under /api.
package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/schema"
	"gitea.jw6.us/james/calllog/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler serves the call log, template, user and WhatsApp endpoints.
type Handler struct {
	store *store.Store
	now   func() time.Time
	hash  func(password string) (string, error)
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the time source used for defaulted timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithPasswordCost sets the bcrypt cost used when registering users.
func WithPasswordCost(cost int) Option {
	return func(h *Handler) { h.hash = bcryptHasher(cost) }
}

func NewHandler(st *store.Store, opts ...Option) *Handler {
	h := &Handler{
		store: st,
		now:   time.Now,
		hash:  bcryptHasher(bcrypt.DefaultCost),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func bcryptHasher(cost int) func(string) (string, error) {
	return func(password string) (string, error) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
}

// readBody returns the request body, or writes an error response and
// returns false.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			errors.Message(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		errors.LogError(r, "read request body", err)
		errors.Message(w, http.StatusBadRequest, "Invalid request data")
		return nil, false
	}
	return body, true
}

// rejectInvalid writes a 400 for validation failures. Any other error is
// reported as a 500 with fallback as the message.
func rejectInvalid(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *schema.ValidationError
	if stderrors.As(err, &verr) {
		errors.ValidationFailed(w, r, verr)
		return
	}
	errors.InternalError(w, r, err, fallback)
}

func invalidQuery(field, code, message string) *schema.ValidationError {
	return &schema.ValidationError{Errors: []schema.FieldError{
		{Code: code, Path: []string{field}, Message: message},
	}}
}
