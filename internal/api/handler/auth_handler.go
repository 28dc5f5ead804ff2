package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/api/metrics"
	"github.com/trackerpro/tracker-auth/internal/core/domain"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
)

const (
	loginRedirect  = "/dashboard"
	logoutRedirect = "/"
)

// SessionManager writes and destroys the session principal.
type SessionManager interface {
	Establish(c echo.Context, user *domain.User) (domain.Principal, error)
	Destroy(c echo.Context) error
}

type AuthHandler struct {
	identity ports.IdentityService
	sessions SessionManager
	audit    ports.AuditSink
	log      zerolog.Logger
}

func NewAuthHandler(identity ports.IdentityService, sessions SessionManager, audit ports.AuditSink, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions, audit: audit, log: log}
}

type registerRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Department      string `json:"department"`
	EmployeeID      string `json:"empId"`
	MobileNo        string `json:"mobileNo"`
	Role            string `json:"role,omitempty"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	RedirectURL string           `json:"redirectUrl"`
	User        domain.Principal `json:"user"`
}

type logoutResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RedirectURL string `json:"redirectUrl"`
}

type checkEmailRequest struct {
	Email string `query:"email" validate:"required"`
}

type checkEmployeeIDRequest struct {
	EmployeeID string `query:"empId" validate:"required"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type meResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *domain.Principal `json:"user,omitempty"`
}

// Register creates a new user account with role USER.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  failureResponse
// @Failure      409   {object}  failureResponse
// @Failure      500   {object}  failureResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
		return badRequest(c, "Invalid payload")
	}

	user, err := h.identity.Register(c.Request().Context(), ports.RegistrationInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Department:      req.Department,
		EmployeeID:      req.EmployeeID,
		MobileNo:        req.MobileNo,
		Role:            req.Role,
	})
	metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
	if err != nil {
		return Failure(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Success: true,
		Message: "User registered successfully",
		UserID:  user.ID,
	})
}

// Login verifies credentials and stores the principal in the session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  failureResponse
// @Failure      401   {object}  failureResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Invalid input")
	}

	user, err := h.identity.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return Failure(c, err)
	}

	principal, err := h.sessions.Establish(c, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{
		Success:     true,
		Message:     "Login successful",
		RedirectURL: loginRedirect,
		User:        principal,
	})
}

// Logout destroys the session. It always reports success.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	principal, hadPrincipal := domain.PrincipalFrom(c.Request().Context())

	if err := h.sessions.Destroy(c); err != nil {
		h.log.Warn().Err(err).Msg("session destroy failed")
	}
	if hadPrincipal {
		h.audit.Record(domain.AuthEvent{
			Type:    domain.EventLogout,
			Email:   principal.Email,
			UserID:  principal.UserID,
			Success: true,
			At:      time.Now().UTC(),
		})
	}

	return c.JSON(http.StatusOK, logoutResponse{
		Success:     true,
		Message:     "Logged out successfully",
		RedirectURL: logoutRedirect,
	})
}

// CheckEmail reports whether an account already uses the email.
//
// @Summary      Check email availability
// @Tags         auth
// @Produce      json
// @Param        email  query     string  true  "Email to check"
// @Success      200    {object}  existsResponse
// @Failure      400    {object}  failureResponse
// @Router       /api/auth/check-email [get]
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req checkEmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	exists, err := h.identity.EmailExists(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existsResponse{Exists: exists})
}

// CheckEmployeeID reports whether an account already uses the employee id.
//
// @Summary      Check employee ID availability
// @Tags         auth
// @Produce      json
// @Param        empId  query     string  true  "Employee ID to check"
// @Success      200    {object}  existsResponse
// @Failure      400    {object}  failureResponse
// @Router       /api/auth/check-empid [get]
func (h *AuthHandler) CheckEmployeeID(c echo.Context) error {
	var req checkEmployeeIDRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	exists, err := h.identity.EmployeeIDExists(c.Request().Context(), req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existsResponse{Exists: exists})
}

// Me returns the identity attached to the current session, if any.
//
// @Summary      Current session identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := domain.PrincipalFrom(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusOK, meResponse{Authenticated: false})
	}
	return c.JSON(http.StatusOK, meResponse{Authenticated: true, User: &p})
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrDuplicateEmployeeID):
		return "duplicate_employee_id"
	case errors.Is(err, domain.ErrFieldValidation):
		return "validation_failed"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "password_mismatch"
	default:
		return "error"
	}
}
