// Package providers implements the gateway over the external backlink data
// sources. It owns per-provider rate limiting, retry/backoff and the
// mock-vs-live dispatch.
package providers

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a non-2xx response from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Provider, e.Message, e.StatusCode, e.Endpoint)
}

// Transient reports whether the failure is worth retrying. Server-side
// errors are; client-side errors are not.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}

// RateLimitError represents an exhausted local token budget. The gateway
// returns rate_limited immediately rather than queuing, so task latency
// stays bounded.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, retry after %v", e.Provider, e.RetryAfter)
}

// AuthError represents missing credentials, an invalid key or an
// insufficient subscription scope. Never retried; triggers mock fallback.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error: %s", e.Provider, e.Message)
}

// IsTransient reports whether an error should be retried with backoff
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return false
	}
	// Network-level failures are transient
	return true
}
