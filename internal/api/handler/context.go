package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/maintenance-app/maintenance-api/internal/api/middleware"
	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

// CurrentUser returns the principal resolved by the access-control
// middleware. Handlers mounted behind a guard can rely on it; anywhere else
// the missing principal surfaces as domain.ErrUnauthenticated.
func CurrentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.Principal(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}
