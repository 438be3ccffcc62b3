package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
	"github.com/maintenance-app/maintenance-api/internal/core/ports"
)

const tokenTypeBearer = "bearer"

// AuthService implements registration, login, token rotation, principal
// resolution and the role/tier policy checks.
type AuthService struct {
	repo       ports.UserRepository
	hasher     *PasswordHasher
	codec      *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoker    ports.TokenRevoker
	events     ports.AuthEventSink
	log        zerolog.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithRevoker enables revocation of refresh tokens on rotation and logout.
// Without it a rotated refresh token stays valid until its own expiry.
func WithRevoker(r ports.TokenRevoker) Option {
	return func(s *AuthService) { s.revoker = r }
}

// WithEventSink sends audit records to sink.
func WithEventSink(sink ports.AuthEventSink) Option {
	return func(s *AuthService) { s.events = sink }
}

// WithClock overrides the service's time source. The codec keeps its own,
// set with WithCodecClock.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	repo ports.UserRepository,
	hasher *PasswordHasher,
	codec *TokenCodec,
	cfg TokenConfig,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	cfg = cfg.withDefaults()
	s := &AuthService{
		repo:       repo,
		hasher:     hasher,
		codec:      codec,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new active principal on the free tier.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		Tier:         domain.DefaultTier,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.record(domain.AuthEvent{Type: domain.EventRegistered, UserID: created.ID, Email: created.Email})
	return created, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, s.loginFailed(email, "", "missing credentials")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend the same bcrypt time as a real comparison.
			s.hasher.Verify(password, s.timingHash())
			return nil, s.loginFailed(email, "", "unknown email")
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(email, user.ID, "password mismatch")
	}
	if !user.IsActive {
		s.record(domain.AuthEvent{Type: domain.EventLoginFailure, UserID: user.ID, Email: email, Reason: "inactive"})
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

func (s *AuthService) loginFailed(email, userID, reason string) error {
	s.log.Debug().Str("email", email).Str("reason", reason).Msg("login rejected")
	s.record(domain.AuthEvent{Type: domain.EventLoginFailure, UserID: userID, Email: email, Reason: reason})
	return domain.ErrInvalidCredentials
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equaliser-not-a-password")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare timing hash")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// IssueTokens mints an access/refresh pair for user.
func (s *AuthService) IssueTokens(_ context.Context, user *domain.User) (*domain.TokenPair, error) {
	now := s.now()
	access, err := s.codec.Encode(domain.TokenClaims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	}, domain.TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Encode(domain.TokenClaims{
		Subject: user.ID,
		Email:   user.Email,
	}, domain.TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        tokenTypeBearer,
		ExpiresIn:        int64(s.accessTTL / time.Second),
		AccessExpiresAt:  now.Add(s.accessTTL).UTC(),
		RefreshExpiresAt: now.Add(s.refreshTTL).UTC(),
	}, nil
}

// Login authenticates and issues a token pair in one step.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.record(domain.AuthEvent{Type: domain.EventLoginSuccess, UserID: user.ID, Email: user.Email})
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new pair. The role in the new access
// token is re-read from the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, domain.TokenRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.lookupPrincipal(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Spend the presented token only once its replacement exists.
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	s.record(domain.AuthEvent{Type: domain.EventRefreshed, UserID: user.ID, Email: user.Email})
	return pair, nil
}

// revoke spends the refresh token's id. A token that was already spent is
// reported as invalid.
func (s *AuthService) revoke(ctx context.Context, claims domain.TokenClaims) error {
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return domain.ErrTokenExpired
	}
	fresh, err := s.revoker.Revoke(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if !fresh {
		s.log.Warn().Str("user_id", claims.Subject).Str("jti", claims.ID).Msg("spent refresh token presented")
		return domain.ErrTokenInvalid
	}
	return nil
}

// Logout revokes refreshToken when it belongs to userID. An empty or already
// expired token is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken != "" {
		claims, err := s.codec.Decode(refreshToken, domain.TokenRefresh)
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			// nothing left to revoke
		case err != nil:
			return err
		case claims.Subject != userID:
			return domain.ErrTokenInvalid
		default:
			if err := s.revoke(ctx, claims); err != nil && !errors.Is(err, domain.ErrTokenInvalid) {
				return err
			}
		}
	}
	s.record(domain.AuthEvent{Type: domain.EventLoggedOut, UserID: userID})
	return nil
}

// ResolvePrincipal returns the stored principal named by an access token.
func (s *AuthService) ResolvePrincipal(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.codec.Decode(accessToken, domain.TokenAccess)
	if err != nil {
		return nil, err
	}
	return s.lookupPrincipal(ctx, claims.Subject)
}

func (s *AuthService) lookupPrincipal(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

// SetActive toggles a principal's active flag. Deactivation takes effect on
// the principal's next request since every request re-reads the store.
func (s *AuthService) SetActive(ctx context.Context, userID string, active bool) (*domain.User, error) {
	user, err := s.repo.SetActive(ctx, userID, active)
	if err != nil {
		return nil, err
	}
	s.record(domain.AuthEvent{
		Type:   domain.EventActivation,
		UserID: user.ID,
		Email:  user.Email,
		Reason: fmt.Sprintf("active=%t", active),
	})
	return user, nil
}

// CheckRole fails with domain.ErrForbidden unless user holds one of allowed.
func (s *AuthService) CheckRole(user *domain.User, allowed ...domain.Role) error {
	for _, r := range allowed {
		if user.Role == r {
			return nil
		}
	}
	return &domain.AccessError{Err: domain.ErrForbidden, AllowedRoles: allowed}
}

// CheckTier fails with domain.ErrForbidden when the user's tier ranks below
// required, and with domain.ErrSubscriptionExpired when the rank suffices but
// the subscription has lapsed.
func (s *AuthService) CheckTier(user *domain.User, required domain.Tier) error {
	if user.Tier.Rank() < required.Rank() {
		return &domain.AccessError{Err: domain.ErrForbidden, RequiredTier: required}
	}
	if !user.TierActive(s.now()) {
		return &domain.AccessError{Err: domain.ErrSubscriptionExpired, RequiredTier: required}
	}
	return nil
}

func (s *AuthService) record(event domain.AuthEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	s.events.Enqueue(event)
}
