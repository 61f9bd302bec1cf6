package schema

import (
	"fmt"
	"strings"
)

// Error codes reported in FieldError.Code.
const (
	CodeInvalidType      = "invalid_type"
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidEnumValue = "invalid_enum_value"
	CodeInvalidDate      = "invalid_date"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
)

// FieldError describes one rejected field. Path is empty for errors that
// concern the whole document.
type FieldError struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// ValidationError collects every field error found in a request body.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if len(fe.Path) == 0 {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(fe.Path, "."), fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField reports whether any error points at the named top-level field.
func (e *ValidationError) HasField(name string) bool {
	for _, fe := range e.Errors {
		if len(fe.Path) > 0 && fe.Path[0] == name {
			return true
		}
	}
	return false
}

func fieldError(code, field, message string) FieldError {
	path := []string{}
	if field != "" {
		path = []string{field}
	}
	return FieldError{Code: code, Path: path, Message: message}
}
