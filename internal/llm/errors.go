package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorType buckets provider failures for retry decisions and logs.
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeUnavailable ErrorType = "provider_unavailable"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// ProviderError is a failed completion call, classified.
type ProviderError struct {
	Type       ErrorType
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("openrouter %s (%d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openrouter %s: %s", e.Type, e.Message)
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeUnavailable:
		return true
	}
	return false
}

// RateLimitError is a 429 with the provider's requested pause, when it
// sent one.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("openrouter rate limited, retry after %s", e.RetryAfter)
	}
	return "openrouter rate limited: " + e.Message
}

// ShapeDecodeError reports model output that did not decode or validate
// into the requested shape. Retrying the same prompt may help (models are
// stochastic), so it counts as retryable within the attempt budget.
type ShapeDecodeError struct {
	Shape Shape
	Cause error
}

func (e *ShapeDecodeError) Error() string {
	return fmt.Sprintf("completion did not match %s shape: %v", e.Shape, e.Cause)
}

func (e *ShapeDecodeError) Unwrap() error { return e.Cause }

// IsRetryable classifies any error produced by this package.
func IsRetryable(err error) bool {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.Retryable()
	}
	var decode *ShapeDecodeError
	if errors.As(err, &decode) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// retryAfter extracts a provider-requested pause from an error chain.
func retryAfter(err error) (time.Duration, bool) {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) && rateLimit.RetryAfter > 0 {
		return rateLimit.RetryAfter, true
	}
	return 0, false
}
