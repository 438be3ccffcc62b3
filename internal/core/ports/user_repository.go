package ports

import (
	"context"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

// UserRepository is the credential store consumed by the auth core. Each
// method touches a single record. Lookups return domain.ErrUserNotFound when
// nothing matches; Create returns domain.ErrDuplicateEmail on a unique-key
// conflict.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
}
