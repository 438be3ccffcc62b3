package middleware

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/maintenance-app/maintenance-api/internal/api/metrics"
	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

// stubChecker mirrors the real policy: role allow-list and tier rank.
type stubChecker struct{}

func (stubChecker) CheckRole(user *domain.User, allowed ...domain.Role) error {
	for _, r := range allowed {
		if user.Role == r {
			return nil
		}
	}
	return &domain.AccessError{Err: domain.ErrForbidden, AllowedRoles: allowed}
}

func (stubChecker) CheckTier(user *domain.User, required domain.Tier) error {
	if user.Tier.Rank() < required.Rank() {
		return &domain.AccessError{Err: domain.ErrForbidden, RequiredTier: required}
	}
	if !user.TierActive(time.Now()) {
		return &domain.AccessError{Err: domain.ErrSubscriptionExpired, RequiredTier: required}
	}
	return nil
}

// stubGuardService combines token resolution with the policy checks.
type stubGuardService struct {
	*stubResolver
	stubChecker
}

func TestRBAC_Allows(t *testing.T) {
	c, rec := newContext("")
	c.Set(PrincipalKey, &domain.User{ID: "u1", Role: domain.RoleManager, IsActive: true})

	called := false
	mw := RBAC(stubChecker{}, domain.RoleAdmin, domain.RoleManager)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	c, _ := newContext("")
	c.Set(PrincipalKey, &domain.User{ID: "u1", Role: domain.RoleViewer, IsActive: true})

	err := RBAC(stubChecker{}, domain.RoleAdmin, domain.RoleManager)(mustNotReach(t))(c)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRBAC_WithoutPrincipal(t *testing.T) {
	c, _ := newContext("")

	err := RBAC(stubChecker{}, domain.RoleAdmin)(mustNotReach(t))(c)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSubscription_Forbids(t *testing.T) {
	c, _ := newContext("")
	c.Set(PrincipalKey, &domain.User{ID: "u1", Tier: domain.TierPro, IsActive: true})

	err := Subscription(stubChecker{}, domain.TierEnterprise)(mustNotReach(t))(c)
	var accessErr *domain.AccessError
	if !errors.As(err, &accessErr) || accessErr.RequiredTier != domain.TierEnterprise {
		t.Fatalf("expected AccessError naming enterprise, got %v", err)
	}
}

func TestGuard_RoleAndTier(t *testing.T) {
	users := map[string]*domain.User{
		"tech-enterprise": {ID: "u1", Role: domain.RoleTechnician, Tier: domain.TierEnterprise, IsActive: true},
		"admin-free":      {ID: "u2", Role: domain.RoleAdmin, Tier: domain.TierFree, IsActive: true},
		"admin-pro":       {ID: "u3", Role: domain.RoleAdmin, Tier: domain.TierPro, IsActive: true},
	}
	resolver := &stubResolver{users: users}
	mw := Guard(resolver, Roles(stubChecker{}, domain.RoleAdmin), MinTier(stubChecker{}, domain.TierPro))

	tests := []struct {
		token string
		ok    bool
	}{
		{"tech-enterprise", false},
		{"admin-free", false},
		{"admin-pro", true},
	}
	for _, tt := range tests {
		c, _ := newContext("Bearer " + tt.token)
		err := mw(func(c echo.Context) error { return nil })(c)
		if tt.ok && err != nil {
			t.Fatalf("%s: expected pass, got %v", tt.token, err)
		}
		if !tt.ok && !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", tt.token, err)
		}
	}
}

func TestGuards_Named(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	users := map[string]*domain.User{
		"admin":              {ID: "u1", Role: domain.RoleAdmin, Tier: domain.TierFree, IsActive: true},
		"manager":            {ID: "u2", Role: domain.RoleManager, Tier: domain.TierFree, IsActive: true},
		"technician":         {ID: "u3", Role: domain.RoleTechnician, Tier: domain.TierFree, IsActive: true},
		"viewer-basic":       {ID: "u4", Role: domain.RoleViewer, Tier: domain.TierBasic, IsActive: true},
		"viewer-enterprise":  {ID: "u5", Role: domain.RoleViewer, Tier: domain.TierEnterprise, IsActive: true},
		"enterprise-expired": {ID: "u6", Role: domain.RoleAdmin, Tier: domain.TierEnterprise, TierExpiresAt: &expired, IsActive: true},
	}
	guards := NewGuards(stubGuardService{stubResolver: &stubResolver{users: users}})

	tests := []struct {
		name    string
		guard   echo.MiddlewareFunc
		token   string
		wantErr error
	}{
		{"authenticated viewer", guards.Authenticated(), "viewer-basic", nil},
		{"admin allows admin", guards.Admin(), "admin", nil},
		{"admin denies manager", guards.Admin(), "manager", domain.ErrForbidden},
		{"manager allows admin", guards.Manager(), "admin", nil},
		{"manager allows manager", guards.Manager(), "manager", nil},
		{"manager denies technician", guards.Manager(), "technician", domain.ErrForbidden},
		{"pro allows basic", guards.Pro(), "viewer-basic", nil},
		{"pro allows enterprise", guards.Pro(), "viewer-enterprise", nil},
		{"pro denies free", guards.Pro(), "technician", domain.ErrForbidden},
		{"enterprise allows enterprise", guards.Enterprise(), "viewer-enterprise", nil},
		{"enterprise denies basic", guards.Enterprise(), "viewer-basic", domain.ErrForbidden},
		{"enterprise expired", guards.Enterprise(), "enterprise-expired", domain.ErrSubscriptionExpired},
		{"pro expired", guards.Pro(), "enterprise-expired", domain.ErrSubscriptionExpired},
		{"manager without token", guards.Manager(), "", domain.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := ""
			if tt.token != "" {
				header = "Bearer " + tt.token
			}
			c, _ := newContext(header)

			called := false
			err := tt.guard(func(c echo.Context) error {
				called = true
				if user, ok := Principal(c); !ok || user != users[tt.token] {
					t.Fatalf("principal not set for %s", tt.token)
				}
				return nil
			})(c)

			if tt.wantErr == nil {
				if err != nil || !called {
					t.Fatalf("expected pass, got err=%v called=%t", err, called)
				}
				return
			}
			if called {
				t.Fatalf("next handler must not run")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGuard_RecordsDenials(t *testing.T) {
	users := map[string]*domain.User{
		"viewer": {ID: "u1", Role: domain.RoleViewer, Tier: domain.TierFree, IsActive: true},
	}
	guards := NewGuards(stubGuardService{stubResolver: &stubResolver{users: users}})

	roleBefore := counterValue(t, metrics.AccessDeniedTotal.WithLabelValues("role"))
	tierBefore := counterValue(t, metrics.AccessDeniedTotal.WithLabelValues("tier"))

	c, _ := newContext("Bearer viewer")
	_ = guards.Admin()(mustNotReach(t))(c)
	c, _ = newContext("Bearer viewer")
	_ = guards.Pro()(mustNotReach(t))(c)

	if got := counterValue(t, metrics.AccessDeniedTotal.WithLabelValues("role")); got != roleBefore+1 {
		t.Fatalf("role denials: expected %v, got %v", roleBefore+1, got)
	}
	if got := counterValue(t, metrics.AccessDeniedTotal.WithLabelValues("tier")); got != tierBefore+1 {
		t.Fatalf("tier denials: expected %v, got %v", tierBefore+1, got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
