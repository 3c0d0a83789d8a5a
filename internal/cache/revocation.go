package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const RevokedKeyPrefix = "revoked:%s"

// RevokedKey is the denylist key for a token ID.
func RevokedKey(jti string) string {
	return fmt.Sprintf(RevokedKeyPrefix, jti)
}

// RevokeToken denylists a token ID. The TTL should cover the token's
// remaining lifetime; after expiry the signature check alone rejects it.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return errors.New("redis client not initialized")
	}
	return client.Set(ctx, RevokedKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether the token ID is on the denylist. Redis being
// unavailable degrades to accepting the token, matching the readiness policy
// where only the database is load-bearing.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil {
		return false
	}
	n, err := client.Exists(ctx, RevokedKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
