// Package engine runs chat turns: it owns the provider-agnostic message
// types, the error taxonomy shared by every adapter, and the pipeline that
// ties persona rendering, the provider call and the session together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// ErrEmptyReply marks a 2xx provider response that carried no usable text.
var ErrEmptyReply = errors.New("provider returned no reply text")

// ConfigError reports a missing or invalid setting. Raised at startup only.
type ConfigError struct {
	Provider string
	Key      string
	Msg      string
}

func (e *ConfigError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "not set"
	}
	if e.Provider != "" {
		return fmt.Sprintf("config: %s (provider %s): %s", e.Key, e.Provider, msg)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, msg)
}

// ProviderError is a non-success or malformed upstream response.
type ProviderError struct {
	Provider   string
	StatusCode int    // 0 when no HTTP response was received
	Body       string // upstream message, may be empty
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s provider error", e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps an upstream failure.
func NewProviderError(provider string, status int, body string, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Body: body, Err: err}
}

// ValidationError is a missing or malformed request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// ResourceError is an unreadable template or prompt file.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ClassifyProviderError decides whether a failed provider call may be retried.
func ClassifyProviderError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	if errors.Is(err, context.Canceled) {
		return RetryClassNonRetryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return RetryClassRetryable
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch {
		case perr.StatusCode == http.StatusTooManyRequests,
			perr.StatusCode == http.StatusRequestTimeout,
			perr.StatusCode >= 500:
			return RetryClassRetryable
		case perr.StatusCode == 0 && !errors.Is(perr.Err, ErrEmptyReply):
			// No response at all: network trouble.
			return RetryClassRetryable
		}
	}

	return RetryClassNonRetryable
}
