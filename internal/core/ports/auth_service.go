package ports

import (
	"context"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
	Role     string
}

// PrincipalResolver turns a presented access token into the current principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, accessToken string) (*domain.User, error)
}

// AccessChecker evaluates role and subscription policies for a principal.
type AccessChecker interface {
	CheckRole(user *domain.User, allowed ...domain.Role) error
	CheckTier(user *domain.User, required domain.Tier) error
}

// AuthService is the full surface consumed by HTTP handlers and middleware.
type AuthService interface {
	PrincipalResolver
	AccessChecker

	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	IssueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	SetActive(ctx context.Context, userID string, active bool) (*domain.User, error)
}
