package llm

import (
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is returned when the provider answers 429. RetryAfter is
// zero when the provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuth means the credentials were refused. Never retried.
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string { return fmt.Sprintf("credentials rejected: %v", e.Err) }

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrEmptyResponse is a completed call that carried no text.
type ErrEmptyResponse struct {
	Provider string
}

func (e *ErrEmptyResponse) Error() string {
	return fmt.Sprintf("%s returned no text", e.Provider)
}

// ErrProviderUnavailable covers transport failures, 5xx answers and
// anything else that did not produce a response.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "provider unavailable"
	}
	return fmt.Sprintf("provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded carries the truncated text so callers can still
// record what the model produced.
type ErrMaxTokensExceeded struct {
	Text string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("response truncated at the token limit after %d bytes", len(e.Text))
}

// errorForStatus maps an SDK error carrying an HTTP status onto the
// package's error types.
func errorForStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return &ErrAuth{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}
