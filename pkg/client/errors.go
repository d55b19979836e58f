package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrAuthentication is returned when the API rejects the credentials.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	// It wraps the last attempt's error so callers can recover the class
	// that exhausted the budget.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of page fetch failures.
type ErrorClass string

const (
	// ErrorClassAuth represents credential rejections (401). Never retried.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassRateLimit represents 429 rate limit responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents transient 502/503/504 server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport timeouts and connection failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRejected represents any other non-success outcome. Never retried.
	ErrorClassRejected ErrorClass = "rejected"
)

// APIError represents a Falcon API failure with additional context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("falcon %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("falcon %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-success HTTP status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch status {
	case http.StatusUnauthorized:
		return ErrorClassAuth
	case http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrorClassServer
	default:
		return ErrorClassRejected
	}
}

// classifyTransport maps a transport-level error to an error class.
// Timeouts and connection failures are retryable; anything else is not.
func classifyTransport(err error) ErrorClass {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorClassNetwork
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorClassNetwork
	}
	return ErrorClassRejected
}

// errorClassOf extracts the classification from an attempt error.
func errorClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return classifyTransport(err)
}

// shouldRetry determines if an error class is retryable.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassRateLimit, ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// Classify reports the error class for any error returned by the client,
// so callers can map failures to exit codes without inspecting messages.
// Returns an empty class for nil errors.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	if errors.Is(err, ErrAuthentication) {
		return ErrorClassAuth
	}
	if errors.Is(err, ErrRetryExhausted) || errors.Is(err, ErrContextCancelled) {
		return ErrorClassNetwork
	}
	return classifyTransport(err)
}
