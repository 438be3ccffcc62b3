package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

const (
	DefaultAlgorithm  = "HS256"
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig is the signing configuration, built once at startup and never
// mutated afterwards.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c TokenConfig) withDefaults() TokenConfig {
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	return c
}

// tokenClaims is the JWT wire form of domain.TokenClaims.
type tokenClaims struct {
	jwt.RegisteredClaims
	Kind  domain.TokenKind `json:"type"`
	Email string           `json:"email,omitempty"`
	Role  domain.Role      `json:"role,omitempty"`
}

// TokenCodec signs and verifies HMAC JWTs.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithCodecClock sets the time source used to stamp and validate tokens.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec validates cfg and returns a codec. Only HMAC algorithms are
// accepted since the key is a shared secret.
func NewTokenCodec(cfg TokenConfig, opts ...CodecOption) (*TokenCodec, error) {
	cfg = cfg.withDefaults()
	if cfg.Secret == "" {
		return nil, errors.New("token codec: signing secret is required")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token codec: unsupported signing algorithm %q", cfg.Algorithm)
	}
	c := &TokenCodec{secret: []byte(cfg.Secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs claims as a token of the given kind expiring ttl from now.
// Role is dropped from refresh tokens.
func (c *TokenCodec) Encode(claims domain.TokenClaims, kind domain.TokenKind, ttl time.Duration) (string, error) {
	now := c.now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:  kind,
		Email: claims.Email,
	}
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	if kind == domain.TokenAccess {
		tc.Role = claims.Role
	}

	signed, err := jwt.NewWithClaims(c.method, tc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode verifies the token and returns its claims. A well-formed token past
// its expiry yields domain.ErrTokenExpired; any other failure, including a
// kind other than expected, yields domain.ErrTokenInvalid.
func (c *TokenCodec) Decode(token string, expected domain.TokenKind) (domain.TokenClaims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenClaims{}, domain.ErrTokenExpired
		}
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}
	if tc.Subject == "" || tc.Kind != expected {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	out := domain.TokenClaims{
		ID:        tc.ID,
		Subject:   tc.Subject,
		Kind:      tc.Kind,
		Email:     tc.Email,
		Role:      tc.Role,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		out.IssuedAt = tc.IssuedAt.Time
	}
	return out, nil
}
