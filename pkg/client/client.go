// Package client provides the Falcon Spotlight vulnerability client with
// serial offset pagination, retry logic, and error classification.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/falcon-vulns/pkg/auth"
	"github.com/Sternrassler/falcon-vulns/pkg/cache"
	"github.com/Sternrassler/falcon-vulns/pkg/models"
	"github.com/Sternrassler/falcon-vulns/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// vulnerabilitiesPath is the Spotlight combined endpoint that returns
// full vulnerability resources together with pagination metadata.
const vulnerabilitiesPath = "/spotlight/combined/vulnerabilities/v1"

// Prometheus metrics for Falcon client operations.
var (
	falconRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_requests_total",
		Help: "Total Falcon API requests by status",
	}, []string{"status"})

	falconRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "falcon_request_duration_seconds",
		Help:    "Falcon API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	falconErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_errors_total",
		Help: "Total Falcon API errors by class",
	}, []string{"class"})

	falconResourcesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "falcon_resources_parsed_total",
		Help: "Total vulnerability resources parsed into records",
	})

	falconParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "falcon_parse_failures_total",
		Help: "Total vulnerability resources skipped because they could not be parsed",
	})
)

// ProgressFunc receives pagination progress after every fetched page.
// totalPages is 0 until the API has reported a total count.
type ProgressFunc func(page, totalPages, records int)

// Client is the Falcon Spotlight vulnerability client.
type Client struct {
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	tokenCache  *cache.TokenCache
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Auth carries the Falcon credentials and the regional base URL.
	Auth auth.Context

	// Redis optionally backs the OAuth token cache. When nil every
	// invocation requests a fresh token.
	Redis *redis.Client

	// User-Agent header sent with every request
	UserAgent string

	// PageSize is the pagination limit per request
	PageSize int

	// Timeout bounds each HTTP request
	Timeout time.Duration

	// Retry configures the per-page retry policy
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for the given
// authentication context.
func DefaultConfig(authCtx auth.Context) Config {
	return Config{
		Auth:      authCtx,
		UserAgent: "falcon-vulns/1.0.0",
		PageSize:  500,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new Falcon client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("auth context: %w", err)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive (got %d)", cfg.PageSize)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative (got %d)", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "falcon-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: ratelimit.NewTracker(logger),
		config:      cfg,
		logger:      logger,
	}

	if cfg.Redis != nil {
		c.tokenCache = cache.NewTokenCache(cfg.Redis, cfg.Auth.ClientID)
	}
	c.tokenSource = c.newTokenSource()

	return c, nil
}

// newTokenSource builds the OAuth2 token source chain: client credentials
// flow against the regional token endpoint, optionally backed by the
// Redis token cache, always wrapped for in-process reuse.
func (c *Client) newTokenSource() oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	src := c.config.Auth.TokenSource(ctx)
	if c.tokenCache != nil {
		src = cache.TokenSource(ctx, c.tokenCache, src)
	}
	return oauth2.ReuseTokenSource(nil, src)
}

// Authenticate verifies the credentials by obtaining an OAuth2 bearer
// token. Every token endpoint failure is reported as an authentication
// rejection; there is no retry for bad credentials.
func (c *Client) Authenticate(ctx context.Context) error {
	if _, err := c.tokenSource.Token(); err != nil {
		c.logger.Error().Err(err).Msg("Authentication failed")
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	c.logger.Debug().
		Str("region", c.config.Auth.CloudRegion).
		Msg("Authenticated against Falcon API")
	return nil
}

// QueryVulnerabilities retrieves every vulnerability matching the
// criteria, walking the result set page by page. Pages are fetched
// serially; a page is requested only after the previous one has been
// received and parsed. onProgress, when non-nil, is invoked after each
// page with the running totals.
func (c *Client) QueryVulnerabilities(ctx context.Context, criteria models.FilterCriteria, onProgress ProgressFunc) ([]models.VulnerabilityRecord, error) {
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("filter criteria: %w", err)
	}

	fql := c.buildFilter(criteria)
	c.logger.Debug().Str("filter", fql).Msg("Built FQL filter")

	var records []models.VulnerabilityRecord
	limit := c.config.PageSize
	offset := 0
	page := 1

	for {
		c.logger.Debug().
			Int("page", page).
			Int("offset", offset).
			Int("limit", limit).
			Msg("Fetching vulnerability page")

		resp, err := c.fetchPage(ctx, fql, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, raw := range resp.Resources {
			record, err := parseResource(raw, criteria)
			if err != nil {
				falconParseFailuresTotal.Inc()
				c.logger.Warn().Err(err).Msg("Skipping unparseable resource")
				continue
			}
			falconResourcesParsedTotal.Inc()
			records = append(records, record)
		}

		total := resp.Meta.Pagination.Total
		if onProgress != nil {
			totalPages := 0
			if total > 0 {
				totalPages = (total + limit - 1) / limit
			}
			onProgress(page, totalPages, len(records))
		}

		// The set is exhausted when the next offset would reach past
		// the reported total. A missing or zero total means there is
		// nothing beyond what has already been fetched.
		if offset+limit >= total {
			break
		}
		offset += limit
		page++
	}

	c.logger.Info().
		Int("records", len(records)).
		Int("pages", page).
		Msg("Retrieved vulnerability records")
	return records, nil
}

// buildFilter renders the criteria as FQL and appends the minimum-age
// clause, which depends on the current time and therefore cannot live
// on the criteria themselves.
func (c *Client) buildFilter(criteria models.FilterCriteria) string {
	fql := criteria.ToFQL()
	if criteria.MinDaysOpen <= 0 {
		return fql
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -criteria.MinDaysOpen)
	clause := fmt.Sprintf("created_timestamp:<'%s'", cutoff.Format("2006-01-02T15:04:05Z"))
	if fql == "" {
		return clause
	}
	return fql + "+" + clause
}

// fetchPage issues one page request through the retry policy and
// returns the decoded response envelope.
func (c *Client) fetchPage(ctx context.Context, fql string, limit, offset int) (*pageResponse, error) {
	var result *pageResponse

	attempt := func() error {
		req, err := c.newPageRequest(ctx, fql, limit, offset)
		if err != nil {
			return err
		}

		startTime := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			errClass := classifyTransport(err)
			falconErrorsTotal.WithLabelValues(string(errClass)).Inc()
			falconRequestsTotal.WithLabelValues("network_error").Inc()
			c.logger.Warn().Err(err).Str("error_class", string(errClass)).Msg("HTTP request failed")
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		falconRequestDuration.Observe(time.Since(startTime).Seconds())
		c.rateLimiter.UpdateFromHeaders(resp.Header)
		falconRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusOK {
			errClass := classifyStatus(resp.StatusCode)
			falconErrorsTotal.WithLabelValues(string(errClass)).Inc()

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Class:      errClass,
				Message:    resp.Status,
			}
			if errClass == ErrorClassAuth {
				apiErr.Err = ErrAuthentication
				c.logger.Error().
					Int("status", resp.StatusCode).
					Msg("Falcon API rejected the credentials")
				return apiErr
			}

			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Falcon API request error")
			return apiErr
		}

		var page pageResponse
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			falconErrorsTotal.WithLabelValues(string(ErrorClassRejected)).Inc()
			return &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassRejected,
				Message:    "malformed response body",
				Err:        err,
			}
		}

		result = &page
		return nil
	}

	if err := retryWithBackoff(ctx, c.config.Retry, c.logger, attempt); err != nil {
		return nil, err
	}
	return result, nil
}

// newPageRequest builds the authenticated GET request for one page.
func (c *Client) newPageRequest(ctx context.Context, fql string, limit, offset int) (*http.Request, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	u, err := url.Parse(c.config.Auth.BaseURL + vulnerabilitiesPath)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint URL: %w", err)
	}

	q := u.Query()
	if fql != "" {
		q.Set("filter", fql)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	token.SetAuthHeader(req)
	return req, nil
}

// RateLimits returns the most recent rate limit observation.
func (c *Client) RateLimits() ratelimit.State {
	return c.rateLimiter.Snapshot()
}

// SetHTTPClient sets a custom HTTP client (for testing). The OAuth2
// token source is rebuilt so token requests go through the same client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.tokenSource = c.newTokenSource()
}

// SetTokenSource overrides the OAuth2 token source (for testing).
func (c *Client) SetTokenSource(src oauth2.TokenSource) {
	c.tokenSource = src
}
