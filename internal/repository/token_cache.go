package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache is a read-through Redis cache for active-token lookups. Every
// authenticated request resolves its bearer key, so keeping hot entries in
// Redis spares the database a join per request. Entries are short-lived and
// dropped on revoke, so a logged-out key stops resolving immediately.
//
// All methods are nil-safe: a nil *TokenCache (no Redis configured) behaves
// as a cache that never hits, and every Redis failure degrades to a miss.
type TokenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// cachedCredential is the JSON value stored per key.
type cachedCredential struct {
	Token Token `json:"token"`
	User  User  `json:"user"`
}

const tokenCachePrefix = "authtoken:"

// NewTokenCache wraps a Redis client. Passing nil yields a disabled cache.
func NewTokenCache(rdb *redis.Client, ttl time.Duration) *TokenCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached credential for a key, if present.
func (c *TokenCache) Get(ctx context.Context, key string) (Token, User, bool) {
	if c == nil {
		return Token{}, User{}, false
	}
	raw, err := c.rdb.Get(ctx, tokenCachePrefix+key).Bytes()
	if err != nil {
		return Token{}, User{}, false
	}
	var entry cachedCredential
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Token{}, User{}, false
	}
	return entry.Token, entry.User, true
}

// Set stores a resolved credential. Failures are ignored; the next lookup
// simply goes to the database again.
func (c *TokenCache) Set(ctx context.Context, t Token, u User) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(cachedCredential{Token: t, User: u})
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, tokenCachePrefix+t.Key, raw, c.ttl).Err()
}

// Del drops the entry for a key. Called on revoke so stale sessions cannot
// outlive logout by the cache TTL.
func (c *TokenCache) Del(ctx context.Context, key string) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, tokenCachePrefix+key).Err()
}
