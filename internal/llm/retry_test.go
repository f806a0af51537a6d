package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/prompt"
)

func fastRetry() configuration.RetryConfig {
	return configuration.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func testRequest() *Request {
	return &Request{
		Template: "call_qa_compliance",
		Shape:    ShapeCompliance,
		Descriptor: prompt.InvocationDescriptor{
			Model: "openai/gpt-4o-2024-08-06",
			Messages: []prompt.Message{
				{Role: "user", Content: "evaluate"},
			},
		},
	}
}

// countingHandler fails with the scripted errors before succeeding.
type countingHandler struct {
	failures []error
	calls    int
}

func (h *countingHandler) Handle(context.Context, *Request) (*Response, error) {
	h.calls++
	if h.calls <= len(h.failures) {
		return nil, h.failures[h.calls-1]
	}
	return &Response{Content: "{}"}, nil
}

func TestRetryMiddleware_RecoversFromTransientFailures(t *testing.T) {
	handler := &countingHandler{failures: []error{
		&ProviderError{Type: ErrorTypeUnavailable, StatusCode: 502, Message: "bad gateway"},
		&ProviderError{Type: ErrorTypeNetwork, Message: "connection reset"},
	}}

	mw, err := NewRetryMiddleware(fastRetry())
	require.NoError(t, err)

	resp, err := mw(handler).Handle(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, handler.calls)
	assert.NotNil(t, resp)
}

func TestRetryMiddleware_NonRetryableShortCircuits(t *testing.T) {
	handler := &countingHandler{failures: []error{
		&ProviderError{Type: ErrorTypeAuth, StatusCode: 401, Message: "bad key"},
	}}

	mw, err := NewRetryMiddleware(fastRetry())
	require.NoError(t, err)

	_, err = mw(handler).Handle(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 1, handler.calls, "auth failures must not be retried")
}

func TestRetryMiddleware_ExhaustsAttempts(t *testing.T) {
	handler := &countingHandler{failures: []error{
		&ProviderError{Type: ErrorTypeUnavailable, StatusCode: 503},
		&ProviderError{Type: ErrorTypeUnavailable, StatusCode: 503},
		&ProviderError{Type: ErrorTypeUnavailable, StatusCode: 503},
	}}

	mw, err := NewRetryMiddleware(fastRetry())
	require.NoError(t, err)

	_, err = mw(handler).Handle(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 3, handler.calls)
	assert.ErrorContains(t, err, "exhausted 3 attempts")
}

func TestRetryMiddleware_HonorsRetryAfterHint(t *testing.T) {
	handler := &countingHandler{failures: []error{
		&RateLimitError{RetryAfter: 2 * time.Millisecond},
	}}

	mw, err := NewRetryMiddleware(fastRetry())
	require.NoError(t, err)

	start := time.Now()
	_, err = mw(handler).Handle(context.Background(), testRequest())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestRetryMiddleware_ContextCancellationStopsWaiting(t *testing.T) {
	handler := &countingHandler{failures: []error{
		&RateLimitError{RetryAfter: time.Hour},
	}}

	cfg := fastRetry()
	cfg.MaxInterval = time.Hour
	mw, err := NewRetryMiddleware(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = mw(handler).Handle(ctx, testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, handler.calls)
}

func TestNewRetryMiddleware_RejectsBadConfig(t *testing.T) {
	_, err := NewRetryMiddleware(configuration.RetryConfig{MaxAttempts: 0, Multiplier: 2})
	assert.Error(t, err)

	_, err = NewRetryMiddleware(configuration.RetryConfig{MaxAttempts: 3, Multiplier: 0.5})
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &RateLimitError{}, true},
		{"timeout", &ProviderError{Type: ErrorTypeTimeout}, true},
		{"network", &ProviderError{Type: ErrorTypeNetwork}, true},
		{"unavailable", &ProviderError{Type: ErrorTypeUnavailable}, true},
		{"auth", &ProviderError{Type: ErrorTypeAuth}, false},
		{"bad request", &ProviderError{Type: ErrorTypeBadRequest}, false},
		{"shape decode", &ShapeDecodeError{Shape: ShapeCompliance}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"plain error", assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
