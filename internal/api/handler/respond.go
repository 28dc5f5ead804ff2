package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// failureResponse is the canonical envelope for every failed request.
type failureResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// ResolveError maps a known domain error to its HTTP status and client-facing
// message. ok is false for errors that must not be shown to the client.
func ResolveError(err error) (status int, message string, ok bool) {
	dupEmail := errors.Is(err, domain.ErrDuplicateEmail)
	dupEmp := errors.Is(err, domain.ErrDuplicateEmployeeID)

	switch {
	case dupEmail && dupEmp:
		return http.StatusConflict, "Email already exists; Employee ID already exists", true
	case dupEmail:
		return http.StatusConflict, "Email already exists", true
	case dupEmp:
		return http.StatusConflict, "Employee ID already exists", true
	case errors.Is(err, domain.ErrFieldValidation):
		return http.StatusBadRequest, "Validation errors", true
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match", true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password", true
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "Authentication required", true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden", true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	}
	return http.StatusInternalServerError, "Internal server error", false
}

// Failure renders err with the canonical envelope. Unknown errors are
// returned to echo so the central error handler logs them.
func Failure(c echo.Context, err error) error {
	status, msg, ok := ResolveError(err)
	if !ok {
		return err
	}
	resp := failureResponse{Success: false, Message: msg}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Errors = ve.Fields
	}
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, failureResponse{Success: false, Message: msg})
}
