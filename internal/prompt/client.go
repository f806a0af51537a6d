package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
)

// Resolver renders a named template with variables into an executable
// invocation descriptor.
type Resolver interface {
	Resolve(ctx context.Context, template string, variables map[string]any) (*InvocationDescriptor, error)
}

// Client is the PromptLayer-backed Resolver. Resolution is retried with
// exponential backoff on transient failures; raw template fetches are
// cached with a TTL since templates change rarely and resolution happens
// on every evaluation stage.
type Client struct {
	baseURL    string
	apiKey     string
	label      string
	httpClient *http.Client
	retry      configuration.RetryConfig
	logger     *slog.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	cacheTTL time.Duration
}

type cacheEntry struct {
	raw       json.RawMessage
	fetchedAt time.Time
}

// CacheStats summarizes the template cache for diagnostics.
type CacheStats struct {
	TotalCached   int `json:"total_cached"`
	ValidCached   int `json:"valid_cached"`
	ExpiredCached int `json:"expired_cached"`
}

// NewClient builds a PromptLayer client from configuration. A nil
// httpClient gets a default with the configured timeout.
func NewClient(
	cfg configuration.PromptLayerConfig,
	retry configuration.RetryConfig,
	httpClient *http.Client,
	logger *slog.Logger,
) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		label:      cfg.Label,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger.With("component", "promptlayer"),
		cache:      make(map[string]cacheEntry),
		cacheTTL:   cfg.CacheTTL,
	}, nil
}

// executeRequest is the body of POST /prompt-templates/{name}.
type executeRequest struct {
	Label          string         `json:"label"`
	InputVariables map[string]any `json:"input_variables,omitempty"`
}

// executeResponse is the slice of the provider response we consume.
type executeResponse struct {
	LLMKwargs json.RawMessage `json:"llm_kwargs"`
}

// Resolve renders the template server-side and returns the resulting
// invocation descriptor. Transient failures are retried up to the
// configured attempt cap; 404 and malformed-template failures return
// immediately.
func (c *Client) Resolve(ctx context.Context, template string, variables map[string]any) (*InvocationDescriptor, error) {
	body, err := c.post(ctx, template, executeRequest{
		Label:          c.label,
		InputVariables: variables,
	})
	if err != nil {
		return nil, err
	}

	var resp executeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TemplateInvalidError{Template: template, Reason: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(resp.LLMKwargs) == 0 {
		return nil, &TemplateInvalidError{Template: template, Reason: "response missing llm_kwargs"}
	}

	var descriptor InvocationDescriptor
	if err := json.Unmarshal(resp.LLMKwargs, &descriptor); err != nil {
		return nil, &TemplateInvalidError{Template: template, Reason: fmt.Sprintf("malformed llm_kwargs: %v", err)}
	}
	if err := descriptor.Validate(); err != nil {
		return nil, &TemplateInvalidError{Template: template, Reason: err.Error()}
	}

	c.logger.DebugContext(ctx, "template resolved",
		"template", template,
		"model", descriptor.Model,
		"messages", len(descriptor.Messages))

	return &descriptor, nil
}

// FetchTemplate retrieves the raw template definition without rendering
// variables, serving from the TTL cache when fresh. Used at worker startup
// to verify templates exist.
func (c *Client) FetchTemplate(ctx context.Context, template string) (json.RawMessage, error) {
	c.mu.Lock()
	if entry, ok := c.cache[template]; ok && time.Since(entry.fetchedAt) < c.cacheTTL {
		c.mu.Unlock()
		return entry.raw, nil
	}
	c.mu.Unlock()

	body, err := c.post(ctx, template, executeRequest{Label: c.label})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[template] = cacheEntry{raw: body, fetchedAt: time.Now()}
	c.mu.Unlock()

	return body, nil
}

// ClearCache drops one template from the cache, or all of them when name
// is empty.
func (c *Client) ClearCache(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.cache = make(map[string]cacheEntry)
		return
	}
	delete(c.cache, name)
}

// Stats reports cache occupancy.
func (c *Client) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{TotalCached: len(c.cache)}
	for _, entry := range c.cache {
		if time.Since(entry.fetchedAt) < c.cacheTTL {
			stats.ValidCached++
		}
	}
	stats.ExpiredCached = stats.TotalCached - stats.ValidCached
	return stats
}

// post issues the template request with bounded retry on transient
// failures.
func (c *Client) post(ctx context.Context, template string, payload executeRequest) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff(attempt - 1)
			c.logger.WarnContext(ctx, "retrying template request",
				"template", template,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.postOnce(ctx, template, payload)
		if err == nil {
			return body, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("template request exhausted %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) postOnce(ctx context.Context, template string, payload executeRequest) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal template request: %w", err)
	}

	url := fmt.Sprintf("%s/prompt-templates/%s", c.baseURL, template)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build template request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Template: template, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Template: template, Message: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &TemplateNotFoundError{Template: template}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{
			Template:   template,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls the provider's error field out of a failure body, or
// falls back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// backoff computes the delay before the given retry using exponential
// growth capped at the configured maximum, with optional full jitter.
func (c *Client) backoff(retryNumber int) time.Duration {
	delay := c.retry.InitialInterval
	for i := 1; i < retryNumber; i++ {
		delay = time.Duration(float64(delay) * c.retry.Multiplier)
		if delay >= c.retry.MaxInterval {
			delay = c.retry.MaxInterval
			break
		}
	}
	if delay > c.retry.MaxInterval {
		delay = c.retry.MaxInterval
	}
	if c.retry.UseJitter && delay > 0 {
		delay = time.Duration(rand.Int63n(int64(delay)) + 1)
	}
	return delay
}
