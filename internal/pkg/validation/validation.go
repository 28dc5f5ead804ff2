// Package validation wraps go-playground/validator and renders its field
// errors as short human-readable messages.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports struct field names as written.
func New() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Messages converts a validator error into one message per failing field.
// Errors of any other type yield a single message.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return msgs
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fieldLabel(fe.Param()))
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

var labels = map[string]string{
	"FullName":        "full name",
	"EmployeeID":      "employee ID",
	"MobileNo":        "mobile number",
	"ConfirmPassword": "confirm password",
}

func fieldLabel(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return strings.ToLower(name)
}
