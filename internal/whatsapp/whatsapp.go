// Package whatsapp composes pre-filled WhatsApp chat links for call logs.
package whatsapp

import (
	"net/url"
	"strings"

	"gitea.jw6.us/james/calllog/internal/schema"
)

// MaxMessageLength is the longest message the WhatsApp composer accepts.
const MaxMessageLength = schema.MaxMessageLength

// DefaultMessage is used when no template or message is given.
const DefaultMessage = "Hi {name}, "

const baseURL = "https://wa.me/"

// Render substitutes every {name} and {number} placeholder with the contact
// details of log.
func Render(message string, log schema.CallLog) string {
	return strings.NewReplacer(
		"{name}", log.ContactName,
		"{number}", log.PhoneNumber,
	).Replace(message)
}

// NormalizePhone strips every character that is not an ASCII digit.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// url.QueryEscape writes spaces as + and escapes marks that
// encodeURIComponent keeps as they are.
var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeText escapes text the way browsers escape a URI component.
func EncodeText(text string) string {
	return componentFixups.Replace(url.QueryEscape(text))
}

// Link builds the wa.me deep link for phone with text pre-filled.
func Link(phone, text string) string {
	return baseURL + NormalizePhone(phone) + "?text=" + EncodeText(text)
}
