package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	falconRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	falconRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "falcon_retry_backoff_seconds",
		Help:    "Backoff duration before retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	falconRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for the page fetch retry policy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the backoff before the first retry. Every further
	// retry doubles the previous delay.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration:
// 5 retries with backoffs of 1s, 2s, 4s, 8s and 16s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
	}
}

// retryWithBackoff executes fn until it succeeds, fails with a
// non-retryable classification, or the retry budget is exhausted.
// The wait between attempts happens on the calling goroutine and is
// cut short when the context is cancelled.
func retryWithBackoff(ctx context.Context, config RetryConfig, logger zerolog.Logger, fn func() error) error {
	backoff := config.BaseDelay

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		errorClass := errorClassOf(err)
		if !shouldRetry(errorClass) {
			// Don't retry fatal errors - return immediately
			return err
		}

		if attempt >= config.MaxRetries {
			// All retries exhausted
			falconRetryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
			logger.Error().
				Str("error_class", string(errorClass)).
				Int("attempts", attempt+1).
				Msg("Retry attempts exhausted")
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt+1, err)
		}

		falconRetriesTotal.WithLabelValues(string(errorClass)).Inc()
		falconRetryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(backoff.Seconds())

		logger.Warn().
			Str("error_class", string(errorClass)).
			Int("attempt", attempt+1).
			Int("max_retries", config.MaxRetries).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		// Wait with context cancellation support
		select {
		case <-ctx.Done():
			logger.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
			// Continue to next attempt
		}

		backoff *= 2
	}
}
