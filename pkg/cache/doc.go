// Package cache provides OAuth2 token caching with a Redis backend.
//
// A CLI run is short-lived, but Falcon bearer tokens are valid for about
// 30 minutes. Caching the token in Redis lets consecutive invocations
// skip the token endpoint entirely:
//
// - Tokens are stored per client ID (digest-scoped keys, no credential leaks)
// - The Redis TTL mirrors the token lifetime minus a safety margin
// - Expired or corrupted entries are treated as cache misses
// - Cache outages degrade to fetching a fresh token, never to a failure
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create token cache for the credentials in use
//	tokenCache := cache.NewTokenCache(redisClient, clientID)
//
//	// Wrap an OAuth2 token source with the cache
//	src := cache.TokenSource(ctx, tokenCache, baseSource)
//	token, err := src.Token()
//
// # Metrics
//
// The token cache exports Prometheus metrics:
//
//   - falcon_token_cache_hits_total - Tokens served from Redis
//   - falcon_token_cache_misses_total - Lookups without a valid token
//   - falcon_token_cache_errors_total{operation} - Cache operation errors
package cache
