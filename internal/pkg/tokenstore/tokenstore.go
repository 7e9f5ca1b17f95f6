package tokenstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "auth:revoked:"

// Store keeps revoked JWTs in Redis until they would have expired anyway
type Store struct {
	rdb *redis.Client
}

// New creates a new Store
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}

// Revoke marks the token as revoked for ttl. A non-positive ttl is a no-op
// since the token is already expired.
func (s *Store) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token was revoked
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := s.rdb.Get(ctx, key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return true, nil
}
