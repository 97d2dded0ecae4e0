package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	SavoirKeyPrefix      = "savoir:%s"
	SavoirListKeyPrefix  = "savoirs:v%d:%s"
	SavoirListVersionKey = "savoirs:version"
	ProfileKeyPrefix     = "profile:%s"
	BlacklistKeyPrefix   = "blacklist:%s"
	OAuthStateKeyPrefix  = "oauth:state:%s"
)

const (
	SavoirTTL     = 10 * time.Minute
	SavoirListTTL = 2 * time.Minute
	ProfileTTL    = 5 * time.Minute
	OAuthStateTTL = 10 * time.Minute
)

func SavoirKey(id string) string {
	return fmt.Sprintf(SavoirKeyPrefix, id)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func OAuthStateKey(state string) string {
	return fmt.Sprintf(OAuthStateKeyPrefix, state)
}

// SavoirListKey derives a listing key from the current list version and the
// encoded query. Bumping the version orphans every cached listing at once.
func SavoirListKey(ctx context.Context, encodedQuery string) string {
	var version int64
	if client != nil {
		if v, err := client.Get(ctx, SavoirListVersionKey).Int64(); err == nil {
			version = v
		}
	}
	sum := sha1.Sum([]byte(encodedQuery))
	return fmt.Sprintf(SavoirListKeyPrefix, version, hex.EncodeToString(sum[:8]))
}

// InvalidateSavoirLists bumps the listing version.
func InvalidateSavoirLists(ctx context.Context) {
	if client == nil {
		return
	}
	client.Incr(ctx, SavoirListVersionKey)
}

// InvalidateSavoir drops the cached detail (by id and slug) and every listing.
func InvalidateSavoir(ctx context.Context, id, slug string) {
	keys := []string{SavoirKey(id)}
	if slug != "" {
		keys = append(keys, SavoirKey(slug))
	}
	Invalidate(ctx, keys...)
	InvalidateSavoirLists(ctx)
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}
