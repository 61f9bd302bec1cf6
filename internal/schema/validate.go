package schema

import (
	"fmt"
	"strings"
	"time"
)

// MaxMessageLength bounds template and composed message bodies.
const MaxMessageLength = 4096

type callLogInput struct {
	ContactName *string `json:"contactName" validate:"required,min=1"`
	PhoneNumber *string `json:"phoneNumber" validate:"required,min=1"`
	CallType    *string `json:"callType" validate:"required,oneof=incoming outgoing missed"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

type callLogPatchInput struct {
	ContactName *string `json:"contactName" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,min=1"`
	CallType    *string `json:"callType" validate:"omitempty,oneof=incoming outgoing missed"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

type templateInput struct {
	Name    *string `json:"name" validate:"required,min=1"`
	Message *string `json:"message" validate:"required,min=1,max=4096"`
}

type userInput struct {
	Username *string `json:"username" validate:"required,min=1"`
	Password *string `json:"password" validate:"required,min=1"`
}

type whatsAppInput struct {
	PhoneNumber *string `json:"phoneNumber" validate:"required,min=1"`
	Message     *string `json:"message" validate:"required,min=1,max=4096"`
}

// ParseNewCallLog validates a creation body. Omitted optional fields take
// their defaults: duration 0, isFavorite false and timestamp now.
func ParseNewCallLog(body []byte, now time.Time) (NewCallLog, error) {
	d, err := newDecoder(body)
	if err != nil {
		return NewCallLog{}, err
	}

	in := callLogInput{
		ContactName: d.str("contactName"),
		PhoneNumber: d.str("phoneNumber"),
		CallType:    d.str("callType"),
		Duration:    d.integer("duration"),
	}
	favorite := d.boolean("isFavorite")
	timestamp := d.date("timestamp")

	d.check(in)
	if err := d.err(); err != nil {
		return NewCallLog{}, err
	}

	out := NewCallLog{
		ContactName: *in.ContactName,
		PhoneNumber: *in.PhoneNumber,
		CallType:    CallType(*in.CallType),
		Timestamp:   now,
	}
	if in.Duration != nil {
		out.Duration = *in.Duration
	}
	if favorite != nil {
		out.IsFavorite = *favorite
	}
	if timestamp != nil {
		out.Timestamp = *timestamp
	}
	return out, nil
}

// ParseCallLogPatch validates a partial update body. Every field is optional,
// but a present field must satisfy the same rules as on creation.
func ParseCallLogPatch(body []byte) (CallLogPatch, error) {
	d, err := newDecoder(body)
	if err != nil {
		return CallLogPatch{}, err
	}

	in := callLogPatchInput{
		ContactName: d.str("contactName"),
		PhoneNumber: d.str("phoneNumber"),
		CallType:    d.str("callType"),
		Duration:    d.integer("duration"),
	}
	patch := CallLogPatch{
		ContactName: in.ContactName,
		PhoneNumber: in.PhoneNumber,
		Duration:    in.Duration,
		IsFavorite:  d.boolean("isFavorite"),
		Timestamp:   d.date("timestamp"),
	}

	d.check(in)
	if err := d.err(); err != nil {
		return CallLogPatch{}, err
	}

	if in.CallType != nil {
		ct := CallType(*in.CallType)
		patch.CallType = &ct
	}
	return patch, nil
}

// ParseNewTemplate validates a message template body.
func ParseNewTemplate(body []byte) (NewMessageTemplate, error) {
	d, err := newDecoder(body)
	if err != nil {
		return NewMessageTemplate{}, err
	}
	in := templateInput{Name: d.str("name"), Message: d.str("message")}
	d.check(in)
	if err := d.err(); err != nil {
		return NewMessageTemplate{}, err
	}
	return NewMessageTemplate{Name: *in.Name, Message: *in.Message}, nil
}

// ParseNewUser validates a registration body.
func ParseNewUser(body []byte) (NewUser, error) {
	d, err := newDecoder(body)
	if err != nil {
		return NewUser{}, err
	}
	in := userInput{Username: d.str("username"), Password: d.str("password")}
	d.check(in)
	if err := d.err(); err != nil {
		return NewUser{}, err
	}
	return NewUser{Username: *in.Username, Password: *in.Password}, nil
}

// ParseWhatsAppMessage validates a deep link request body.
func ParseWhatsAppMessage(body []byte) (WhatsAppMessage, error) {
	d, err := newDecoder(body)
	if err != nil {
		return WhatsAppMessage{}, err
	}
	in := whatsAppInput{PhoneNumber: d.str("phoneNumber"), Message: d.str("message")}
	d.check(in)
	if err := d.err(); err != nil {
		return WhatsAppMessage{}, err
	}
	return WhatsAppMessage{PhoneNumber: *in.PhoneNumber, Message: *in.Message}, nil
}

// ParseCallType validates a single call type value, as used in query filters.
func ParseCallType(s string) (CallType, error) {
	ct := CallType(strings.TrimSpace(s))
	if !ct.Valid() {
		options := make([]string, len(CallTypes))
		for i, t := range CallTypes {
			options[i] = "'" + string(t) + "'"
		}
		return "", &ValidationError{Errors: []FieldError{
			fieldError(CodeInvalidEnumValue, "callType", fmt.Sprintf("Invalid enum value. Expected %s, received '%s'",
				strings.Join(options, " | "), s)),
		}}
	}
	return ct, nil
}
