package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
)

// timeoutError mimics a transport timeout for classification tests.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "auth error should not retry",
			errorClass: ErrorClassAuth,
			expected:   false,
		},
		{
			name:       "rate limit should retry",
			errorClass: ErrorClassRateLimit,
			expected:   true,
		},
		{
			name:       "server error should retry",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "network error should retry",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "rejected request should not retry",
			errorClass: ErrorClassRejected,
			expected:   false,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetry(tt.errorClass)
			if result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{status: 401, expected: ErrorClassAuth},
		{status: 429, expected: ErrorClassRateLimit},
		{status: 502, expected: ErrorClassServer},
		{status: 503, expected: ErrorClassServer},
		{status: 504, expected: ErrorClassServer},
		{status: 400, expected: ErrorClassRejected},
		{status: 403, expected: ErrorClassRejected},
		{status: 404, expected: ErrorClassRejected},
		{status: 500, expected: ErrorClassRejected},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			result := classifyStatus(tt.status)
			if result != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{
			name:     "timeout",
			err:      timeoutError{},
			expected: ErrorClassNetwork,
		},
		{
			name:     "wrapped timeout",
			err:      fmt.Errorf("execute request: %w", timeoutError{}),
			expected: ErrorClassNetwork,
		},
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: ErrorClassNetwork,
		},
		{
			name:     "connection refused",
			err:      &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			expected: ErrorClassNetwork,
		},
		{
			name:     "connection closed mid-response",
			err:      io.ErrUnexpectedEOF,
			expected: ErrorClassNetwork,
		},
		{
			name:     "arbitrary error",
			err:      errors.New("something else"),
			expected: ErrorClassRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyTransport(tt.err)
			if result != tt.expected {
				t.Errorf("classifyTransport(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				StatusCode: 503,
				Class:      ErrorClassServer,
				Message:    "service unavailable",
				Err:        errors.New("connection refused"),
			},
			expected: "falcon server error (status 503): service unavailable: connection refused",
		},
		{
			name: "error without wrapped error",
			apiError: &APIError{
				StatusCode: 404,
				Class:      ErrorClassRejected,
				Message:    "not found",
			},
			expected: "falcon rejected error (status 404): not found",
		},
		{
			name: "rate limit error",
			apiError: &APIError{
				StatusCode: 429,
				Class:      ErrorClassRateLimit,
				Message:    "rate limit exceeded",
			},
			expected: "falcon rate_limit error (status 429): rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.apiError.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	apiError := &APIError{
		StatusCode: 401,
		Class:      ErrorClassAuth,
		Message:    "access denied",
		Err:        ErrAuthentication,
	}

	if unwrapped := apiError.Unwrap(); unwrapped != ErrAuthentication {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrAuthentication)
	}

	if !errors.Is(apiError, ErrAuthentication) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name: "auth rejection",
			err: &APIError{
				StatusCode: 401,
				Class:      ErrorClassAuth,
				Err:        ErrAuthentication,
			},
			expected: ErrorClassAuth,
		},
		{
			name:     "wrapped auth sentinel",
			err:      fmt.Errorf("%w: token endpoint says no", ErrAuthentication),
			expected: ErrorClassAuth,
		},
		{
			name: "exhausted retries around rate limit",
			err: fmt.Errorf("%w after 6 attempts: %w", ErrRetryExhausted,
				&APIError{StatusCode: 429, Class: ErrorClassRateLimit, Message: "429"}),
			expected: ErrorClassRateLimit,
		},
		{
			name: "exhausted retries around server error",
			err: fmt.Errorf("%w after 6 attempts: %w", ErrRetryExhausted,
				&APIError{StatusCode: 503, Class: ErrorClassServer, Message: "503"}),
			expected: ErrorClassServer,
		},
		{
			name:     "exhausted retries around transport error",
			err:      fmt.Errorf("%w after 6 attempts: %w", ErrRetryExhausted, timeoutError{}),
			expected: ErrorClassNetwork,
		},
		{
			name:     "context cancelled during backoff",
			err:      fmt.Errorf("%w: context canceled", ErrContextCancelled),
			expected: ErrorClassNetwork,
		},
		{
			name: "rejected response",
			err: &APIError{
				StatusCode: 400,
				Class:      ErrorClassRejected,
				Message:    "bad request",
			},
			expected: ErrorClassRejected,
		},
		{
			name:     "arbitrary error",
			err:      errors.New("surprise"),
			expected: ErrorClassRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.err)
			if result != tt.expected {
				t.Errorf("Classify() = %q, want %q", result, tt.expected)
			}
		})
	}
}
