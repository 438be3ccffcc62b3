package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
	"github.com/maintenance-app/maintenance-api/internal/core/ports"
)

// Roles is a Check passing only principals whose role is in allowed.
func Roles(checker ports.AccessChecker, allowed ...domain.Role) Check {
	return func(_ echo.Context, user *domain.User) error {
		return checker.CheckRole(user, allowed...)
	}
}

// MinTier is a Check passing only principals with an active subscription of
// at least required.
func MinTier(checker ports.AccessChecker, required domain.Tier) Check {
	return func(_ echo.Context, user *domain.User) error {
		return checker.CheckTier(user, required)
	}
}

// RBAC enforces a role allow-list on a route already behind Auth.
func RBAC(checker ports.AccessChecker, allowed ...domain.Role) echo.MiddlewareFunc {
	return fromContext(Roles(checker, allowed...))
}

// Subscription enforces a minimum tier on a route already behind Auth.
func Subscription(checker ports.AccessChecker, required domain.Tier) echo.MiddlewareFunc {
	return fromContext(MinTier(checker, required))
}

func fromContext(check Check) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := Principal(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if err := check(c, user); err != nil {
				recordDenied(err)
				return err
			}
			return next(c)
		}
	}
}

// GuardService resolves principals and evaluates their policies.
type GuardService interface {
	ports.PrincipalResolver
	ports.AccessChecker
}

// Guards bundles the pipelines used across the API.
type Guards struct {
	auth GuardService
}

// NewGuards returns Guards backed by the auth service.
func NewGuards(auth GuardService) *Guards {
	return &Guards{auth: auth}
}

// Authenticated requires any active principal.
func (g *Guards) Authenticated() echo.MiddlewareFunc {
	return Guard(g.auth)
}

// Protect requires an active principal passing every check.
func (g *Guards) Protect(checks ...Check) echo.MiddlewareFunc {
	return Guard(g.auth, checks...)
}

// Roles is a Check bound to the guards' checker.
func (g *Guards) Roles(allowed ...domain.Role) Check {
	return Roles(g.auth, allowed...)
}

// Tier is a Check bound to the guards' checker.
func (g *Guards) Tier(required domain.Tier) Check {
	return MinTier(g.auth, required)
}

// Admin allows administrative endpoints.
func (g *Guards) Admin() echo.MiddlewareFunc {
	return g.Protect(g.Roles(domain.RoleAdmin))
}

// Manager allows elevated-write endpoints.
func (g *Guards) Manager() echo.MiddlewareFunc {
	return g.Protect(g.Roles(domain.RoleAdmin, domain.RoleManager))
}

// Pro requires at least the pro tier.
func (g *Guards) Pro() echo.MiddlewareFunc {
	return g.Protect(g.Tier(domain.TierPro))
}

// Enterprise requires the enterprise tier.
func (g *Guards) Enterprise() echo.MiddlewareFunc {
	return g.Protect(g.Tier(domain.TierEnterprise))
}
