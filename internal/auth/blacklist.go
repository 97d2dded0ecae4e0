package auth

import (
	"context"
	"time"

	"arche/internal/cache"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked token ids in Redis until they would have expired.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Revoke blacklists jti until expiresAt. Already-expired tokens are ignored.
func (b *Blacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if b == nil || b.rdb == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, cache.BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if b == nil || b.rdb == nil {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, cache.BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
