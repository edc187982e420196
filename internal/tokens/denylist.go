// Package tokens holds the logout denylist. A revoked token stays listed
// until its own expiry, after which the entry lapses on its own.
package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "token-denylist"

type Denylist struct {
	redis redis.Cmdable
}

func NewDenylist(client redis.Cmdable) *Denylist {
	return &Denylist{redis: client}
}

// Revoke lists the token for ttl. Tokens are stored hashed; the raw token
// never reaches redis.
func (d *Denylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.redis.Set(ctx, denyKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := d.redis.Exists(ctx, denyKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist lookup: %w", err)
	}
	return n > 0, nil
}

func denyKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + ":" + hex.EncodeToString(sum[:])
}
