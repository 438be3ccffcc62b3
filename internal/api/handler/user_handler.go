package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/maintenance-app/maintenance-api/internal/core/ports"
)

// UserHandler exposes administrative actions on principals.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetActive activates or deactivates a user.
//
// @Summary      Toggle user activation
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User ID"
// @Param        body  body      setActiveRequest  true  "Activation flag"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/active [patch]
func (h *UserHandler) SetActive(c echo.Context) error {
	var req setActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.SetActive(c.Request().Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
