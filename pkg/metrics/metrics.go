// Package metrics provides the centralized Prometheus metrics registry for
// the falcon-vulns tool. All metrics are defined in their respective packages
// (client, cache, ratelimit, progress) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the falcon-vulns tool.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - falcon_requests_total{status} (Counter): Total API requests by HTTP status
//   - falcon_request_duration_seconds (Histogram): API request duration
//   - falcon_errors_total{class} (Counter): Errors by class (auth, rate_limit, server, network, rejected)
//
// Retry Metrics (pkg/client):
//   - falcon_retries_total{error_class} (Counter): Retry attempts by error class
//   - falcon_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - falcon_retry_exhausted_total{error_class} (Counter): Page fetches that exhausted max retries
//
// Parse Metrics (pkg/client):
//   - falcon_resources_parsed_total (Counter): Resources successfully parsed into records
//   - falcon_parse_failures_total (Counter): Resources skipped due to parse failures
//
// Rate Limit Metrics (pkg/ratelimit):
//   - falcon_ratelimit_remaining (Gauge): Requests remaining in the current API rate limit window
//   - falcon_ratelimit_warnings_total (Counter): Responses observed below the warning threshold
//
// Token Cache Metrics (pkg/cache):
//   - falcon_token_cache_hits_total (Counter): OAuth tokens served from Redis
//   - falcon_token_cache_misses_total (Counter): Token cache misses
//   - falcon_token_cache_errors_total{operation} (Counter): Token cache operation errors
//
// Progress Metrics (pkg/progress):
//   - falcon_progress_reports_total (Counter): Progress lines emitted
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(falcon_errors_total[5m])
//
//   # Retry Pressure by Class
//   sum by (error_class) (rate(falcon_retries_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(falcon_request_duration_seconds_bucket[5m]))
//
//   # Parse Failure Ratio
//   rate(falcon_parse_failures_total[5m]) / rate(falcon_resources_parsed_total[5m])
//
//   # Token Cache Hit Rate
//   rate(falcon_token_cache_hits_total[5m]) /
//   (rate(falcon_token_cache_hits_total[5m]) + rate(falcon_token_cache_misses_total[5m]))
