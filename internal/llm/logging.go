package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
)

// NewLoggingMiddleware logs each completion's shape, model, latency, and
// outcome. With redaction enabled (the default) no prompt or completion
// content reaches the logs; transcripts carry customer PII.
func NewLoggingMiddleware(cfg configuration.ObservabilityConfig, logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm")

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			attrs := []any{
				"template", req.Template,
				"shape", req.Shape,
				"model", req.Descriptor.Model,
				"messages", len(req.Descriptor.Messages),
			}
			if !cfg.RedactPrompts {
				attrs = append(attrs, "prompt_preview", promptPreview(req))
			}
			logger.DebugContext(ctx, "completion requested", attrs...)

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "completion failed",
					"template", req.Template,
					"shape", req.Shape,
					"elapsed_ms", elapsed.Milliseconds(),
					"retryable", IsRetryable(err),
					"error", err)
				return nil, err
			}

			logger.InfoContext(ctx, "completion succeeded",
				"template", req.Template,
				"shape", req.Shape,
				"model", req.Descriptor.Model,
				"elapsed_ms", elapsed.Milliseconds(),
				"finish_reason", resp.FinishReason,
				"total_tokens", resp.Usage.TotalTokens,
				"provider_request_id", resp.ProviderRequestID)
			return resp, nil
		})
	}
}

func promptPreview(req *Request) string {
	if len(req.Descriptor.Messages) == 0 {
		return ""
	}
	return truncate(req.Descriptor.Messages[len(req.Descriptor.Messages)-1].Content, 200)
}
