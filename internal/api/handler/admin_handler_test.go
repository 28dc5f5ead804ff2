package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

func TestAdminHandler_GetByEmployeeID(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		findByEmpFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "EMP100" {
				return nil, domain.ErrUserNotFound
			}
			u := sampleUser()
			u.PasswordHash = "$2a$10$secret"
			return u, nil
		},
	}
	h := NewAdminHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/users/EMP100", nil), rec)
	c.SetPath("/api/admin/users/:empId")
	c.SetParamNames("empId")
	c.SetParamValues("EMP100")

	if err := h.GetByEmployeeID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["empId"] != "EMP100" || resp["role"] != "USER" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["passwordHash"]; leaked {
		t.Fatalf("password digest must never be exposed")
	}
}

func TestAdminHandler_GetByEmployeeID_NotFound(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		findByEmpFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewAdminHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/users/NOPE", nil), rec)
	c.SetParamNames("empId")
	c.SetParamValues("NOPE")

	if err := h.GetByEmployeeID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
