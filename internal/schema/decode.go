package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// tooSmallMessages overrides the generic minimum-length message per field.
var tooSmallMessages = map[string]string{
	"contactName": "Contact name is required",
	"phoneNumber": "Phone number is required",
	"name":        "Name is required",
	"message":     "Message is required",
	"username":    "Username is required",
	"password":    "Password is required",
}

// timestampLayouts are tried in order when coercing a string to a time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// decoder reads a JSON object field by field so that absent, null and
// mistyped values can be told apart before struct rules run.
type decoder struct {
	raw    map[string]json.RawMessage
	errs   []FieldError
	failed map[string]bool
}

func newDecoder(body []byte) (*decoder, error) {
	d := &decoder{raw: map[string]json.RawMessage{}, failed: map[string]bool{}}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return d, nil
	}
	if !json.Valid(body) {
		return nil, &ValidationError{Errors: []FieldError{
			fieldError(CodeInvalidJSON, "", "Malformed JSON body"),
		}}
	}
	if kind := jsonKind(body); kind != "object" {
		return nil, &ValidationError{Errors: []FieldError{
			fieldError(CodeInvalidType, "", fmt.Sprintf("Expected object, received %s", kind)),
		}}
	}
	if err := json.Unmarshal(body, &d.raw); err != nil {
		return nil, &ValidationError{Errors: []FieldError{
			fieldError(CodeInvalidJSON, "", "Malformed JSON body"),
		}}
	}
	return d, nil
}

func (d *decoder) fail(field, code, message string) {
	d.failed[field] = true
	d.errs = append(d.errs, fieldError(code, field, message))
}

// present returns the raw value of field, recording an error for null.
func (d *decoder) present(field, expected string) (json.RawMessage, bool) {
	raw, ok := d.raw[field]
	if !ok {
		return nil, false
	}
	if kind := jsonKind(raw); kind == "null" {
		d.fail(field, CodeInvalidType, fmt.Sprintf("Expected %s, received null", expected))
		return nil, false
	}
	return raw, true
}

func (d *decoder) str(field string) *string {
	raw, ok := d.present(field, "string")
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.fail(field, CodeInvalidType, fmt.Sprintf("Expected string, received %s", jsonKind(raw)))
		return nil
	}
	return &s
}

func (d *decoder) boolean(field string) *bool {
	raw, ok := d.present(field, "boolean")
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		d.fail(field, CodeInvalidType, fmt.Sprintf("Expected boolean, received %s", jsonKind(raw)))
		return nil
	}
	return &b
}

func (d *decoder) integer(field string) *int {
	raw, ok := d.present(field, "number")
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		d.fail(field, CodeInvalidType, fmt.Sprintf("Expected number, received %s", jsonKind(raw)))
		return nil
	}
	if f != math.Trunc(f) {
		d.fail(field, CodeInvalidType, "Expected integer, received float")
		return nil
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		d.fail(field, CodeTooBig, fmt.Sprintf("Number must be less than or equal to %d", math.MaxInt32))
		return nil
	}
	n := int(f)
	return &n
}

// maxEpochMillis bounds numeric timestamps to the range of a JavaScript Date.
const maxEpochMillis = 8.64e15

// date coerces a string or a millisecond epoch number to a time. Times whose
// year falls outside 0..9999 are rejected since they cannot be written back
// as RFC 3339.
func (d *decoder) date(field string) *time.Time {
	raw, ok := d.present(field, "date")
	if !ok {
		return nil
	}
	switch jsonKind(raw) {
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if t, ok := parseTimestamp(s); ok && representable(t) {
				return &t
			}
		}
	case "number":
		var ms float64
		if err := json.Unmarshal(raw, &ms); err == nil && math.Abs(ms) <= maxEpochMillis {
			if t := time.UnixMilli(int64(ms)).UTC(); representable(t) {
				return &t
			}
		}
	}
	d.fail(field, CodeInvalidDate, "Invalid date")
	return nil
}

func representable(t time.Time) bool {
	year := t.UTC().Year()
	return year >= 0 && year <= 9999
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// check runs the struct rules of v and records every violation that was not
// already reported while decoding.
func (d *decoder) check(v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		d.errs = append(d.errs, fieldError(CodeInvalidType, "", err.Error()))
		return
	}
	for _, fe := range verrs {
		if d.failed[fe.Field()] {
			continue
		}
		d.errs = append(d.errs, translate(fe))
	}
}

func (d *decoder) err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: d.errs}
}

func translate(fe validator.FieldError) FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fieldError(CodeInvalidType, field, "Required")
	case "min":
		if msg, ok := tooSmallMessages[field]; ok {
			return fieldError(CodeTooSmall, field, msg)
		}
		return fieldError(CodeTooSmall, field, fmt.Sprintf("String must contain at least %s character(s)", fe.Param()))
	case "max":
		return fieldError(CodeTooBig, field, fmt.Sprintf("String must contain at most %s character(s)", fe.Param()))
	case "gte":
		return fieldError(CodeTooSmall, field, fmt.Sprintf("Number must be greater than or equal to %s", fe.Param()))
	case "oneof":
		options := strings.Fields(fe.Param())
		for i, o := range options {
			options[i] = "'" + o + "'"
		}
		return fieldError(CodeInvalidEnumValue, field, fmt.Sprintf("Invalid enum value. Expected %s, received '%v'",
			strings.Join(options, " | "), fe.Value()))
	default:
		return fieldError(fe.Tag(), field, fmt.Sprintf("Failed %q rule", fe.Tag()))
	}
}

// jsonKind names the JSON type of a raw value.
func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "undefined"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
