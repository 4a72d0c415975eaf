package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
// Status 0 (no response) and 5xx are transient; any other status is permanent.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration the provider asked for (informational;
	// the retry pause is fixed)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request timeout.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ValidationError represents a request validation failure.
// This occurs when the request has invalid fields before sending to the provider.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// TransientError marks an arbitrary failure as retryable.
type TransientError struct {
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// PermanentError marks an arbitrary failure as not retryable.
type PermanentError struct {
	Cause error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// ExtractionError indicates that a raw response lacked the expected shape.
// For usage it is non-fatal: the call is recorded with an estimated cost.
type ExtractionError struct {
	// Field is the value that could not be extracted ("completion", "usage").
	Field string

	// Reason describes what was missing or malformed.
	Reason string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract %s from response: %s", e.Field, e.Reason)
}

// IsTransient reports whether err is worth retrying. Explicit markers win;
// then rate limits, timeouts, network timeouts and 5xx or status-less
// provider errors are transient. Everything else, including unclassified
// errors and context cancellation, is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return true
	}
	var auth *AuthError
	if errors.As(err, &auth) {
		return false
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return false
	}
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.StatusCode == 0 || provider.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// ErrorForStatus maps an HTTP error status to the error taxonomy.
func ErrorForStatus(provider string, status int, message string, header http.Header) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Provider: provider, Message: message}
	case status == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if header != nil {
			retryAfter = parseRetryAfter(header.Get("Retry-After"))
		}
		return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Message: message}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &TimeoutError{Provider: provider}
	default:
		return &ProviderError{Provider: provider, StatusCode: status, Message: message}
	}
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
