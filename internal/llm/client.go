package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
)

// Client executes structured completions.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type client struct {
	handler Handler
}

// NewClient assembles the middleware chain from configuration:
// logging -> retry -> OpenRouter core. A nil httpClient gets a tuned
// default transport.
func NewClient(cfg *configuration.Config, httpClient *http.Client, logger *slog.Logger) (Client, error) {
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.OpenRouter.Timeout)
	}

	retry, err := NewRetryMiddleware(cfg.Retry)
	if err != nil {
		return nil, err
	}

	core := NewOpenRouterHandler(cfg.OpenRouter, httpClient)
	chain := Chain(core,
		NewLoggingMiddleware(cfg.Observability, logger),
		retry,
	)
	return &client{handler: chain}, nil
}

// NewClientWithHandler wraps an arbitrary handler; used by tests and by
// callers that assemble their own chain.
func NewClientWithHandler(h Handler) Client {
	return &client{handler: h}
}

func (c *client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Descriptor.Validate(); err != nil {
		return nil, err
	}
	return c.handler.Handle(ctx, req)
}

// CompleteStructured executes a completion and decodes its JSON content
// into the shape T, which must validate successfully. Decode and
// validation failures surface as ShapeDecodeError.
func CompleteStructured[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, c Client, req *Request) (*T, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	out := PT(new(T))
	if err := json.Unmarshal([]byte(resp.Content), out); err != nil {
		return nil, &ShapeDecodeError{Shape: req.Shape, Cause: err}
	}
	if err := out.Validate(); err != nil {
		return nil, &ShapeDecodeError{Shape: req.Shape, Cause: err}
	}
	return (*T)(out), nil
}

// newHTTPClient tunes the transport for a small set of long-lived upstream
// hosts with slow, large responses.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
