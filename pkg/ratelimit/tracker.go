package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit observations.
var (
	falconRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "falcon_ratelimit_remaining",
		Help: "Requests remaining in the current Falcon rate limit window",
	})

	falconRateLimitWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "falcon_ratelimit_warnings_total",
		Help: "Total number of responses observed with a low rate limit budget",
	})
)

// Tracker records the rate limit headers seen on Falcon API responses.
// It observes only: requests are never delayed or blocked here, because
// the retry policy already backs off on 429 responses.
type Tracker struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// UpdateFromHeaders parses the X-RateLimit headers of a response and
// records the observation. Responses without rate limit headers leave
// the state untouched.
func (t *Tracker) UpdateFromHeaders(headers http.Header) {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		// Header not present - fine for error responses and proxies
		return
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		t.logger.Warn().
			Str("value", remainStr).
			Msg("Unparseable X-RateLimit-Remaining header")
		return
	}

	limit := 0
	if limitStr := headers.Get("X-RateLimit-Limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	state := State{
		Limit:      limit,
		Remaining:  remaining,
		LastUpdate: time.Now(),
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	falconRateLimitRemaining.Set(float64(remaining))

	switch {
	case state.Critical():
		falconRateLimitWarningsTotal.Inc()
		t.logger.Error().
			Int("remaining", remaining).
			Int("limit", limit).
			Msg("Falcon rate limit window nearly exhausted")
	case state.Low():
		falconRateLimitWarningsTotal.Inc()
		t.logger.Warn().
			Int("remaining", remaining).
			Int("limit", limit).
			Msg("Falcon rate limit window running low")
	default:
		t.logger.Debug().
			Int("remaining", remaining).
			Int("limit", limit).
			Msg("Rate limit state updated")
	}
}

// Snapshot returns a copy of the latest observation.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
