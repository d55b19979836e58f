// Package ratelimit observes the X-RateLimit headers returned by the
// Falcon API. The observations feed logs and metrics only; the retry
// schedule reacts to response status codes alone.
package ratelimit

import (
	"time"
)

// Thresholds for rate limit log escalation.
const (
	// RemainingCritical marks a request window that is nearly exhausted.
	RemainingCritical = 5

	// RemainingWarning marks a request window that is running low.
	RemainingWarning = 20
)

// State is a point-in-time observation of the Falcon rate limit window.
type State struct {
	// Limit is the request budget of the current window.
	// Extracted from the X-RateLimit-Limit header.
	Limit int `json:"limit"`

	// Remaining is the unused budget of the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// LastUpdate is when the observation was taken. Zero until the
	// first response carrying rate limit headers has been seen.
	LastUpdate time.Time `json:"last_update"`
}

// Observed reports whether any rate limit headers have been seen yet.
func (s State) Observed() bool {
	return !s.LastUpdate.IsZero()
}

// Critical reports whether the window is nearly exhausted.
func (s State) Critical() bool {
	return s.Observed() && s.Remaining < RemainingCritical
}

// Low reports whether the window is running low without being critical.
func (s State) Low() bool {
	return s.Observed() && s.Remaining < RemainingWarning && !s.Critical()
}

// IsStale returns true if the observation is older than the given duration.
func (s State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
