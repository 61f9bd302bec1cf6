package api

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/http/respond"
	"gitea.jw6.us/james/calllog/internal/schema"
	"gitea.jw6.us/james/calllog/internal/store"
	"gitea.jw6.us/james/calllog/internal/whatsapp"
)

type composedMessage struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// ComposeWhatsApp renders a message for a call log and returns it together
// with the wa.me link. The message comes from the templateId query
// parameter, the message query parameter, or the default greeting.
func (h *Handler) ComposeWhatsApp(w http.ResponseWriter, r *http.Request) {
	log, err := h.store.CallLogs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			errors.NotFound(w, callLogNotFound)
			return
		}
		errors.InternalError(w, r, err, "Failed to compose message")
		return
	}

	q := r.URL.Query()
	message := whatsapp.DefaultMessage
	switch {
	case q.Get("templateId") != "":
		tmpl, err := h.store.Templates.GetByID(r.Context(), q.Get("templateId"))
		if err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				errors.NotFound(w, "Template not found")
				return
			}
			errors.InternalError(w, r, err, "Failed to compose message")
			return
		}
		message = tmpl.Message
	case q.Has("message"):
		message = q.Get("message")
	}

	rendered := whatsapp.Render(message, *log)
	if verr := checkMessage("message", rendered); verr != nil {
		errors.ValidationFailed(w, r, verr)
		return
	}
	if verr := checkPhone(log.PhoneNumber); verr != nil {
		errors.ValidationFailed(w, r, verr)
		return
	}

	respond.JSON(w, http.StatusOK, composedMessage{
		Message: rendered,
		URL:     whatsapp.Link(log.PhoneNumber, rendered),
	})
}

// WhatsAppLink builds a wa.me link from an explicit phone number and message.
func (h *Handler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := schema.ParseWhatsAppMessage(body)
	if err != nil {
		rejectInvalid(w, r, err, "Failed to build link")
		return
	}
	if verr := checkPhone(in.PhoneNumber); verr != nil {
		errors.ValidationFailed(w, r, verr)
		return
	}
	respond.JSON(w, http.StatusOK, linkResponse{URL: whatsapp.Link(in.PhoneNumber, in.Message)})
}

func checkMessage(field, message string) *schema.ValidationError {
	switch n := len([]rune(message)); {
	case n == 0:
		return invalidQuery(field, schema.CodeTooSmall, "Message is required")
	case n > whatsapp.MaxMessageLength:
		return invalidQuery(field, schema.CodeTooBig,
			fmt.Sprintf("String must contain at most %d character(s)", whatsapp.MaxMessageLength))
	}
	return nil
}

func checkPhone(phone string) *schema.ValidationError {
	if whatsapp.NormalizePhone(phone) == "" {
		return invalidQuery("phoneNumber", schema.CodeTooSmall, "Phone number must contain at least one digit")
	}
	return nil
}
