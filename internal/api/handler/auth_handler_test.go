package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
)

type stubIdentityService struct {
	registerFn     func(ctx context.Context, in ports.RegistrationInput) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
	emailExistsFn  func(ctx context.Context, email string) (bool, error)
	empExistsFn    func(ctx context.Context, employeeID string) (bool, error)
	findByEmpFn    func(ctx context.Context, employeeID string) (*domain.User, error)
}

func (s *stubIdentityService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubIdentityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubIdentityService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.emailExistsFn(ctx, email)
}

func (s *stubIdentityService) EmployeeIDExists(ctx context.Context, employeeID string) (bool, error) {
	return s.empExistsFn(ctx, employeeID)
}

func (s *stubIdentityService) FindByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return s.findByEmpFn(ctx, employeeID)
}

func (s *stubIdentityService) EnsureBootstrapAdministrator(context.Context) error {
	return nil
}

type stubSessions struct {
	established  *domain.User
	destroyed    bool
	establishErr error
	destroyErr   error
}

func (s *stubSessions) Establish(_ echo.Context, user *domain.User) (domain.Principal, error) {
	if s.establishErr != nil {
		return domain.Principal{}, s.establishErr
	}
	s.established = user
	return user.Principal(), nil
}

func (s *stubSessions) Destroy(echo.Context) error {
	s.destroyed = true
	return s.destroyErr
}

type recordingAudit struct {
	events []domain.AuthEvent
}

func (r *recordingAudit) Record(e domain.AuthEvent) {
	r.events = append(r.events, e)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:         "1",
		FullName:   "Alice Smith",
		Email:      "alice@example.com",
		EmployeeID: "EMP100",
		Role:       domain.RoleUser,
		Enabled:    true,
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		registerFn: func(_ context.Context, in ports.RegistrationInput) (*domain.User, error) {
			if in.FullName != "Alice Smith" || in.EmployeeID != "EMP100" || in.Role != "ADMIN" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleUser(), nil
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())

	body := `{"fullName":"Alice Smith","email":"alice@example.com","password":"secret1","confirmPassword":"secret1","department":"Ops","empId":"EMP100","mobileNo":"555","role":"ADMIN"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", body), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != true || resp["userId"] != "1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusConflict, "Email already exists"},
		{"duplicate employee id", domain.ErrDuplicateEmployeeID, http.StatusConflict, "Employee ID already exists"},
		{"both duplicates", errors.Join(domain.ErrDuplicateEmail, domain.ErrDuplicateEmployeeID), http.StatusConflict, "Email already exists; Employee ID already exists"},
		{"mismatch", domain.ErrPasswordMismatch, http.StatusBadRequest, "Passwords do not match"},
		{"validation", &domain.ValidationError{Fields: []string{"full name is required"}}, http.StatusBadRequest, "Validation errors"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubIdentityService{
				registerFn: func(context.Context, ports.RegistrationInput) (*domain.User, error) {
					return nil, tc.err
				},
			}
			h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@example.com"}`), rec)

			if err := h.Register(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			resp := decode(t, rec)
			if resp["success"] != false || resp["message"] != tc.message {
				t.Fatalf("unexpected payload: %+v", resp)
			}
		})
	}
}

func TestAuthHandler_Register_ValidationListsFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		registerFn: func(context.Context, ports.RegistrationInput) (*domain.User, error) {
			return nil, &domain.ValidationError{Fields: []string{"email is required", "full name is required"}}
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	errs, ok := resp["errors"].([]any)
	if !ok || len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", resp["errors"])
	}
}

func TestAuthHandler_Register_StoreErrorIsPropagated(t *testing.T) {
	e := newTestEcho()
	storeErr := errors.New("connection reset")
	stub := &stubIdentityService{
		registerFn: func(context.Context, ports.RegistrationInput) (*domain.User, error) {
			return nil, storeErr
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{}`), httptest.NewRecorder())

	if err := h.Register(c); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubIdentityService{}, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		authenticateFn: func(_ context.Context, email, password string) (*domain.User, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected credentials %q %q", email, password)
			}
			return sampleUser(), nil
		},
	}
	sess := &stubSessions{}
	h := NewAuthHandler(stub, sess, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sess.established == nil || sess.established.ID != "1" {
		t.Fatalf("expected session to be established for user 1")
	}

	resp := decode(t, rec)
	if resp["redirectUrl"] != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %v", resp["redirectUrl"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "1" || user["role"] != "USER" || user["name"] != "Alice Smith" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		authenticateFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	sess := &stubSessions{}
	h := NewAuthHandler(stub, sess, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"nope"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if sess.established != nil {
		t.Fatalf("session must not be established on failure")
	}
	if resp := decode(t, rec); resp["message"] != "Invalid email or password" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubIdentityService{}, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_SessionFailure(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		authenticateFn: func(context.Context, string, string) (*domain.User, error) {
			return sampleUser(), nil
		},
	}
	saveErr := errors.New("redis down")
	h := NewAuthHandler(stub, &stubSessions{establishErr: saveErr}, &recordingAudit{}, zerolog.Nop())
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`), httptest.NewRecorder())

	if err := h.Login(c); !errors.Is(err, saveErr) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestAuthHandler_Logout_AlwaysSucceeds(t *testing.T) {
	e := newTestEcho()
	sess := &stubSessions{destroyErr: errors.New("redis down")}
	audit := &recordingAudit{}
	h := NewAuthHandler(&stubIdentityService{}, sess, audit, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(domain.WithPrincipal(req.Context(), sampleUser().Principal()))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !sess.destroyed {
		t.Fatalf("expected 200 and destroyed session, got %d destroyed=%v", rec.Code, sess.destroyed)
	}
	if resp := decode(t, rec); resp["success"] != true || resp["redirectUrl"] != "/" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.EventLogout {
		t.Fatalf("expected one logout event, got %+v", audit.events)
	}
}

func TestAuthHandler_Logout_Anonymous(t *testing.T) {
	e := newTestEcho()
	audit := &recordingAudit{}
	h := NewAuthHandler(&stubIdentityService{}, &stubSessions{}, audit, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.events) != 0 {
		t.Fatalf("anonymous logout should not be audited")
	}
}

func TestAuthHandler_CheckEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		emailExistsFn: func(_ context.Context, email string) (bool, error) {
			return email == "taken@example.com", nil
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())

	for email, want := range map[string]bool{"taken@example.com": true, "free@example.com": false} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/check-email?email="+email, nil), rec)
		if err := h.CheckEmail(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if got := decode(t, rec)["exists"]; got != want {
			t.Fatalf("%s: expected exists=%v, got %v", email, want, got)
		}
	}
}

func TestAuthHandler_CheckEmail_MissingParam(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubIdentityService{}, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/check-email", nil), rec)

	if err := h.CheckEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_CheckEmployeeID(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		empExistsFn: func(_ context.Context, id string) (bool, error) {
			return id == "ADMIN001", nil
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, &recordingAudit{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/check-empid?empId=ADMIN001", nil), rec)

	if err := h.CheckEmployeeID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := decode(t, rec)["exists"]; got != true {
		t.Fatalf("expected exists=true, got %v", got)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubIdentityService{}, &stubSessions{}, &recordingAudit{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := decode(t, rec)["authenticated"]; got != false {
		t.Fatalf("expected anonymous, got %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(domain.WithPrincipal(req.Context(), sampleUser().Principal()))
	rec = httptest.NewRecorder()
	if err := h.Me(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["authenticated"] != true {
		t.Fatalf("expected authenticated, got %+v", resp)
	}
}
