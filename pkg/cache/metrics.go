package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenCacheHits tracks tokens served from Redis
	TokenCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "falcon_token_cache_hits_total",
			Help: "Total number of OAuth tokens served from the cache",
		},
	)

	// TokenCacheMisses tracks lookups that found no valid token
	TokenCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "falcon_token_cache_misses_total",
			Help: "Total number of OAuth token cache misses",
		},
	)

	// TokenCacheErrors tracks cache operation errors
	TokenCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "falcon_token_cache_errors_total",
			Help: "Total number of token cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete"
	)
)
