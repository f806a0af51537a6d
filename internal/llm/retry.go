package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
)

// retryMiddleware retries retryable failures with exponential backoff and
// full jitter, honoring provider Retry-After hints and context
// cancellation. It is the only retry layer for completions.
type retryMiddleware struct {
	next Handler
	cfg  configuration.RetryConfig
}

// NewRetryMiddleware validates the retry configuration and returns the
// middleware.
func NewRetryMiddleware(cfg configuration.RetryConfig) (Middleware, error) {
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.Multiplier < 1 {
		return nil, fmt.Errorf("retry multiplier must be at least 1, got %v", cfg.Multiplier)
	}

	return func(next Handler) Handler {
		return &retryMiddleware{next: next, cfg: cfg}
	}, nil
}

func (m *retryMiddleware) Handle(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := m.delayBefore(attempt, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := m.next.Handle(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("completion exhausted %d attempts: %w", m.cfg.MaxAttempts, lastErr)
}

// delayBefore computes the pause before the given attempt. A provider
// Retry-After hint overrides the computed backoff.
func (m *retryMiddleware) delayBefore(attempt int, lastErr error) time.Duration {
	if hint, ok := retryAfter(lastErr); ok {
		if hint > m.cfg.MaxInterval {
			return m.cfg.MaxInterval
		}
		return hint
	}

	delay := m.cfg.InitialInterval
	for i := 2; i < attempt; i++ {
		delay = time.Duration(float64(delay) * m.cfg.Multiplier)
		if delay >= m.cfg.MaxInterval {
			break
		}
	}
	if delay > m.cfg.MaxInterval {
		delay = m.cfg.MaxInterval
	}
	if m.cfg.UseJitter && delay > 0 {
		// Full jitter: uniform over (0, delay].
		delay = time.Duration(rand.Int63n(int64(delay)) + 1)
	}
	return delay
}
