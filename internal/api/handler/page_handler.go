package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// PageHandler stands in for the server-rendered pages. It reports which page
// was requested and who, if anyone, is logged in.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageResponse struct {
	Page string            `json:"page"`
	User *domain.Principal `json:"user"`
}

// Page returns a handler for the named page.
func (h *PageHandler) Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := pageResponse{Page: name}
		if p, ok := domain.PrincipalFrom(c.Request().Context()); ok {
			resp.User = &p
		}
		return c.JSON(http.StatusOK, resp)
	}
}
