package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is a coarse permission class. Roles carry no implied ordering: every
// protected operation lists the roles it allows.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// DefaultRole is assigned at registration when no role is requested.
const DefaultRole = RoleViewer

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleManager, RoleTechnician, RoleOperator, RoleViewer}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole converts a raw string into a Role. An empty string yields DefaultRole.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultRole, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Tier is a subscription level used for feature gating.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// DefaultTier is assigned at registration.
const DefaultTier = TierFree

// tierRanks orders tiers. basic/pro and premium/enterprise are aliases of the
// same rank.
var tierRanks = map[Tier]int{
	TierFree:       0,
	TierBasic:      1,
	TierPro:        1,
	TierPremium:    2,
	TierEnterprise: 2,
}

// Valid reports whether t is one of the enumerated tiers.
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the integer rank of t. Unknown tiers rank as free.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// ParseTier converts a raw string into a Tier. An empty string yields DefaultTier.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTier, nil
	}
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid subscription tier %q", s)
	}
	return t, nil
}

// User models an authenticated principal.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username,omitempty"`
	PasswordHash  string     `json:"-"`
	FullName      string     `json:"full_name"`
	Role          Role       `json:"role"`
	Tier          Tier       `json:"subscription_tier"`
	TierExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	IsVerified    bool       `json:"is_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TierActive reports whether the subscription has not expired at now.
// A nil expiry never expires.
func (u *User) TierActive(now time.Time) bool {
	return u.TierExpiresAt == nil || u.TierExpiresAt.After(now)
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
