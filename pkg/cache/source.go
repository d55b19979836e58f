package cache

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// cachingTokenSource consults the Redis token cache before falling back
// to the wrapped source. Cache failures are logged and swallowed so an
// unreachable Redis never blocks authentication.
type cachingTokenSource struct {
	ctx   context.Context
	cache *TokenCache
	src   oauth2.TokenSource
	mu    sync.Mutex
}

// TokenSource wraps src with the Redis-backed token cache. Fresh tokens
// obtained from src are written back to the cache for later invocations.
func TokenSource(ctx context.Context, cache *TokenCache, src oauth2.TokenSource) oauth2.TokenSource {
	return &cachingTokenSource{
		ctx:   ctx,
		cache: cache,
		src:   src,
	}
}

// Token implements oauth2.TokenSource.
func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := log.With().Str("component", "token-cache").Logger()

	token, err := s.cache.Get(s.ctx)
	if err == nil {
		logger.Debug().Msg("Reusing cached OAuth token")
		return token, nil
	}
	if err != ErrCacheMiss {
		logger.Warn().Err(err).Msg("Token cache unavailable, requesting fresh token")
	}

	token, err = s.src.Token()
	if err != nil {
		return nil, err
	}

	if putErr := s.cache.Put(s.ctx, token); putErr != nil {
		logger.Warn().Err(putErr).Msg("Failed to cache OAuth token")
	}

	return token, nil
}
