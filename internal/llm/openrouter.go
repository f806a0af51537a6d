package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/prompt"
)

// openRouterHandler is the chain core: it speaks the chat-completions
// protocol against OpenRouter in JSON mode.
type openRouterHandler struct {
	baseURL    string
	apiKey     string
	referer    string
	appTitle   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOpenRouterHandler builds the HTTP core from configuration.
func NewOpenRouterHandler(cfg configuration.OpenRouterConfig, httpClient *http.Client) Handler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &openRouterHandler{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		appTitle:   cfg.AppTitle,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

type chatCompletionRequest struct {
	Model          string           `json:"model"`
	Messages       []prompt.Message `json:"messages"`
	Temperature    *float64         `json:"temperature,omitempty"`
	MaxTokens      *int             `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat   `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (h *openRouterHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	payload := chatCompletionRequest{
		Model:          req.Descriptor.Model,
		Messages:       req.Descriptor.Messages,
		Temperature:    req.Descriptor.Temperature,
		MaxTokens:      req.Descriptor.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", h.referer)
	httpReq.Header.Set("X-Title", h.appTitle)

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ProviderError{Type: ErrorTypeTimeout, Message: err.Error()}
		}
		return nil, &ProviderError{Type: ErrorTypeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{Type: ErrorTypeNetwork, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp, raw)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, &ProviderError{
			Type:       ErrorTypeUnknown,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed completion response: %v", err),
		}
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{
			Type:       ErrorTypeUnknown,
			StatusCode: resp.StatusCode,
			Message:    "completion response has no choices",
		}
	}

	choice := completion.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
		ProviderRequestID: completion.ID,
	}, nil
}

func classifyStatus(resp *http.Response, body []byte) error {
	message := truncate(string(body), 300)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{Type: ErrorTypeAuth, StatusCode: resp.StatusCode, Message: message}
	case resp.StatusCode >= 500:
		return &ProviderError{Type: ErrorTypeUnavailable, StatusCode: resp.StatusCode, Message: message}
	case resp.StatusCode >= 400:
		return &ProviderError{Type: ErrorTypeBadRequest, StatusCode: resp.StatusCode, Message: message}
	}
	return &ProviderError{Type: ErrorTypeUnknown, StatusCode: resp.StatusCode, Message: message}
}

// parseRetryAfter handles the delta-seconds form; the HTTP-date form is
// rare enough from this provider to ignore.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
