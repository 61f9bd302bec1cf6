package errors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"gitea.jw6.us/james/calllog/internal/http/respond"
	"gitea.jw6.us/james/calllog/internal/schema"
)

// Body is the JSON shape of every error response.
type Body struct {
	Message string              `json:"message"`
	Errors  []schema.FieldError `json:"errors,omitempty"`
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	respond.JSON(w, status, Body{Message: msg})
}

// InternalError logs err against the request and answers 500 with message,
// which must not carry internal detail.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	LogError(r, message, err)
	Message(w, http.StatusInternalServerError, message)
}

// ValidationFailed answers 400 with the itemized field errors.
func ValidationFailed(w http.ResponseWriter, r *http.Request, verr *schema.ValidationError) {
	entry(r).WithField("errors", len(verr.Errors)).Debug("rejected request body")
	respond.JSON(w, http.StatusBadRequest, Body{Message: "Invalid request data", Errors: verr.Errors})
}

func NotFound(w http.ResponseWriter, message string) {
	Message(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Message(w, http.StatusConflict, message)
}

func LogError(r *http.Request, message string, err error) {
	entry(r).WithError(err).Error(message)
}

func LogInfo(r *http.Request, message string) {
	entry(r).Info(message)
}

func entry(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{"method": r.Method, "path": r.URL.Path}
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		fields["request_id"] = requestID
	}
	return logrus.WithFields(fields)
}
