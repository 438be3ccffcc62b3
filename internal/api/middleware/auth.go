package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/maintenance-app/maintenance-api/internal/api/metrics"
	"github.com/maintenance-app/maintenance-api/internal/core/domain"
	"github.com/maintenance-app/maintenance-api/internal/core/ports"
)

// PrincipalKey is the echo context key holding the resolved *domain.User.
const PrincipalKey = "principal"

// Check is one policy stage of the access-control pipeline. It runs after
// the principal has been resolved and either lets the request through or
// returns a terminal error.
type Check func(c echo.Context, user *domain.User) error

// Guard builds the per-request pipeline:
//  1. extract the bearer token (domain.ErrUnauthenticated when absent or malformed)
//  2. resolve the principal from the token
//  3. require an active principal
//  4. run checks in order; all must pass
//
// The principal is stored under PrincipalKey before next is called.
func Guard(resolver ports.PrincipalResolver, checks ...Check) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c.Request())
			if err != nil {
				return err
			}

			user, err := resolver.ResolvePrincipal(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAccountInactive) {
					recordDenied(err)
				}
				return err
			}

			if !user.IsActive {
				err := fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrAccountInactive)
				recordDenied(err)
				return err
			}

			c.Set(PrincipalKey, user)
			for _, check := range checks {
				if err := check(c, user); err != nil {
					recordDenied(err)
					return err
				}
			}
			return next(c)
		}
	}
}

// Auth authenticates the caller without any further policy.
func Auth(resolver ports.PrincipalResolver) echo.MiddlewareFunc {
	return Guard(resolver)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", domain.ErrUnauthenticated
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", domain.ErrUnauthenticated
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

// Principal returns the user resolved by Guard, if any.
func Principal(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(PrincipalKey).(*domain.User)
	return user, ok && user != nil
}

// recordDenied counts a policy rejection by the check that produced it.
func recordDenied(err error) {
	var ae *domain.AccessError
	check := "other"
	switch {
	case errors.Is(err, domain.ErrAccountInactive):
		check = "inactive"
	case errors.Is(err, domain.ErrSubscriptionExpired):
		check = "subscription_expired"
	case errors.As(err, &ae) && ae.RequiredTier != "":
		check = "tier"
	case errors.As(err, &ae) && len(ae.AllowedRoles) > 0:
		check = "role"
	}
	metrics.AccessDeniedTotal.WithLabelValues(check).Inc()
}
