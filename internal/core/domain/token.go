package domain

import "time"

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenClaims is the payload carried by a signed token. Role is only set on
// access tokens.
type TokenClaims struct {
	ID        string
	Subject   string
	Kind      TokenKind
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
