package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records spent refresh-token ids in Redis.
// Key format: revoked:refresh:<jti>
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a RevocationStore wrapping the given Redis client.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks tokenID as spent until ttl elapses. It reports false when the
// id had already been marked; SETNX makes the claim atomic across replicas.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(tokenID), time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return ok, nil
}

func (s *RevocationStore) key(tokenID string) string {
	return "revoked:refresh:" + tokenID
}
