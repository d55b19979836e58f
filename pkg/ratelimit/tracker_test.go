package ratelimit

import (
	"net/http"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func newTestTracker() *Tracker {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewTracker(logger)
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	tests := []struct {
		name              string
		limitHeader       string
		remainingHeader   string
		expectedLimit     int
		expectedRemaining int
	}{
		{
			name:              "healthy window",
			limitHeader:       "6000",
			remainingHeader:   "5900",
			expectedLimit:     6000,
			expectedRemaining: 5900,
		},
		{
			name:              "low window",
			limitHeader:       "6000",
			remainingHeader:   "15",
			expectedLimit:     6000,
			expectedRemaining: 15,
		},
		{
			name:              "critical window",
			limitHeader:       "6000",
			remainingHeader:   "3",
			expectedLimit:     6000,
			expectedRemaining: 3,
		},
		{
			name:              "missing limit header",
			limitHeader:       "",
			remainingHeader:   "42",
			expectedLimit:     0,
			expectedRemaining: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker()

			headers := http.Header{}
			if tt.limitHeader != "" {
				headers.Set("X-RateLimit-Limit", tt.limitHeader)
			}
			headers.Set("X-RateLimit-Remaining", tt.remainingHeader)

			tracker.UpdateFromHeaders(headers)

			state := tracker.Snapshot()
			if !state.Observed() {
				t.Fatal("Snapshot() not observed after update")
			}
			if state.Limit != tt.expectedLimit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.expectedLimit)
			}
			if state.Remaining != tt.expectedRemaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.expectedRemaining)
			}
		})
	}
}

func TestUpdateFromHeaders_IgnoredHeaders(t *testing.T) {
	tests := []struct {
		name            string
		limitHeader     string
		remainingHeader string
	}{
		{
			name:            "no rate limit headers",
			limitHeader:     "",
			remainingHeader: "",
		},
		{
			name:            "unparseable remaining header",
			limitHeader:     "6000",
			remainingHeader: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker()

			headers := http.Header{}
			if tt.limitHeader != "" {
				headers.Set("X-RateLimit-Limit", tt.limitHeader)
			}
			if tt.remainingHeader != "" {
				headers.Set("X-RateLimit-Remaining", tt.remainingHeader)
			}

			tracker.UpdateFromHeaders(headers)

			if tracker.Snapshot().Observed() {
				t.Error("Snapshot() observed after update that should have been ignored")
			}
		})
	}
}

func TestUpdateFromHeaders_KeepsLatestObservation(t *testing.T) {
	tracker := newTestTracker()

	first := http.Header{}
	first.Set("X-RateLimit-Limit", "6000")
	first.Set("X-RateLimit-Remaining", "5000")
	tracker.UpdateFromHeaders(first)

	second := http.Header{}
	second.Set("X-RateLimit-Limit", "6000")
	second.Set("X-RateLimit-Remaining", "4999")
	tracker.UpdateFromHeaders(second)

	state := tracker.Snapshot()
	if state.Remaining != 4999 {
		t.Errorf("Remaining = %d, want 4999 (latest observation)", state.Remaining)
	}
}

func TestUpdateFromHeaders_MalformedUpdateKeepsPreviousState(t *testing.T) {
	tracker := newTestTracker()

	valid := http.Header{}
	valid.Set("X-RateLimit-Limit", "6000")
	valid.Set("X-RateLimit-Remaining", "100")
	tracker.UpdateFromHeaders(valid)

	invalid := http.Header{}
	invalid.Set("X-RateLimit-Remaining", "not-a-number")
	tracker.UpdateFromHeaders(invalid)

	state := tracker.Snapshot()
	if state.Remaining != 100 {
		t.Errorf("Remaining = %d, want 100 (previous valid observation)", state.Remaining)
	}
}
