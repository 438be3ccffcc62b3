package ports

import (
	"context"
	"time"
)

// TokenRevoker tracks refresh tokens that must no longer be honoured.
type TokenRevoker interface {
	// Revoke marks the token id as spent for ttl. It returns false when the id
	// was already revoked, so exactly one caller wins a concurrent rotation.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}
