package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/core/ports"
)

// AdminHandler exposes account maintenance to administrators.
type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// GetUser handles GET /v1/admin/users/:id.
//
// @Summary      Get any user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  meResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	user, err := h.accounts.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{Success: true, User: toUserResponse(user)})
}

// ResetUsage handles POST /v1/admin/users/:id/usage/reset.
//
// @Summary      Reset a user's generation counter
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  meResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id}/usage/reset [post]
func (h *AdminHandler) ResetUsage(c echo.Context) error {
	user, err := h.accounts.ResetUsage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{Success: true, User: toUserResponse(user)})
}
