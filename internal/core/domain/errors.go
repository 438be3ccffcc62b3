package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrUnauthenticated    = errors.New("missing or malformed bearer credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("access forbidden")

	// ErrSubscriptionExpired is a more specific ErrForbidden: the tier rank is
	// sufficient but the subscription has lapsed.
	ErrSubscriptionExpired = fmt.Errorf("%w: subscription expired", ErrForbidden)
)

// AccessError is returned by policy checks. It names what the caller would
// need, never anything about other principals.
type AccessError struct {
	Err          error
	AllowedRoles []Role
	RequiredTier Tier
}

func (e *AccessError) Error() string {
	switch {
	case errors.Is(e.Err, ErrSubscriptionExpired):
		return fmt.Sprintf("%s subscription expired", e.RequiredTier)
	case e.RequiredTier != "":
		return fmt.Sprintf("requires %s subscription or higher", e.RequiredTier)
	case len(e.AllowedRoles) > 0:
		names := make([]string, len(e.AllowedRoles))
		for i, r := range e.AllowedRoles {
			names[i] = string(r)
		}
		return "requires role: " + strings.Join(names, ", ")
	default:
		return e.Err.Error()
	}
}

func (e *AccessError) Unwrap() error { return e.Err }
