package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
)

// AdminHandler serves administrator-only lookups. Access is gated by the
// authorization policy, not by the handler.
type AdminHandler struct {
	identity ports.IdentityService
}

func NewAdminHandler(identity ports.IdentityService) *AdminHandler {
	return &AdminHandler{identity: identity}
}

type userView struct {
	ID         string      `json:"id"`
	FullName   string      `json:"fullName"`
	Email      string      `json:"email"`
	EmployeeID string      `json:"empId"`
	Department string      `json:"department"`
	MobileNo   string      `json:"mobileNo"`
	Role       domain.Role `json:"role"`
	Enabled    bool        `json:"enabled"`
}

// GetByEmployeeID returns one user looked up by employee id.
//
// @Summary      Look up a user by employee ID
// @Tags         admin
// @Produce      json
// @Param        empId  path      string  true  "Employee ID"
// @Success      200    {object}  userView
// @Failure      401    {object}  failureResponse
// @Failure      403    {object}  failureResponse
// @Failure      404    {object}  failureResponse
// @Router       /api/admin/users/{empId} [get]
func (h *AdminHandler) GetByEmployeeID(c echo.Context) error {
	user, err := h.identity.FindByEmployeeID(c.Request().Context(), c.Param("empId"))
	if err != nil {
		return Failure(c, err)
	}
	return c.JSON(http.StatusOK, userView{
		ID:         user.ID,
		FullName:   user.FullName,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		Department: user.Department,
		MobileNo:   user.MobileNo,
		Role:       user.Role,
		Enabled:    user.Enabled,
	})
}
