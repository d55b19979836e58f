package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

var (
	// ErrCacheMiss indicates no valid token is stored for the credentials
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored token is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// keyPrefix namespaces token cache keys in Redis.
const keyPrefix = "falcon:oauth:token:"

// expirySlack is subtracted from the token lifetime so a cached token
// never reaches the API moments before it expires.
const expirySlack = 30 * time.Second

// TokenCache stores OAuth2 bearer tokens in Redis so consecutive
// invocations reuse a token instead of requesting a fresh one each run.
type TokenCache struct {
	redis *redis.Client
	key   string
}

// NewTokenCache creates a token cache scoped to the given client ID.
// The Redis key embeds a digest of the client ID so different
// credentials never share a token.
func NewTokenCache(redisClient *redis.Client, clientID string) *TokenCache {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}

	digest := sha256.Sum256([]byte(clientID))
	return &TokenCache{
		redis: redisClient,
		key:   keyPrefix + hex.EncodeToString(digest[:16]),
	}
}

// Key returns the Redis key used by this cache.
func (tc *TokenCache) Key() string {
	return tc.key
}

// Get retrieves the cached token.
// Returns ErrCacheMiss if no token is stored or the stored token has expired.
func (tc *TokenCache) Get(ctx context.Context) (*oauth2.Token, error) {
	data, err := tc.redis.Get(ctx, tc.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			TokenCacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		TokenCacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		TokenCacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// The Redis TTL already trims expired tokens, but a clock skewed
	// entry can still come back. Treat it as a miss.
	if !token.Valid() {
		_ = tc.Delete(ctx)
		TokenCacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	TokenCacheHits.Inc()
	return &token, nil
}

// Put stores a token with a TTL matching its remaining lifetime.
// Tokens that carry no expiry or are about to expire are not cached.
func (tc *TokenCache) Put(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	if token.Expiry.IsZero() {
		return nil
	}

	ttl := time.Until(token.Expiry) - expirySlack
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		TokenCacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := tc.redis.Set(ctx, tc.key, data, ttl).Err(); err != nil {
		TokenCacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes the cached token.
func (tc *TokenCache) Delete(ctx context.Context) error {
	if err := tc.redis.Del(ctx, tc.key).Err(); err != nil {
		TokenCacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
