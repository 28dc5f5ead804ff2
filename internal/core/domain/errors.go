package domain

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateEmail         = errors.New("email already exists")
	ErrDuplicateEmployeeID    = errors.New("employee ID already exists")
	ErrFieldValidation        = errors.New("validation errors")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("access forbidden")
	ErrUserNotFound           = errors.New("user not found")
)

// ValidationError lists the human-readable problems found in an input.
// It matches ErrFieldValidation under errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrFieldValidation.Error()
	}
	return ErrFieldValidation.Error() + ": " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrFieldValidation }
