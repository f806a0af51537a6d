// Package events provides the generic event infrastructure for the
// evaluation pipeline. It defines the Envelope type wrapping event payloads
// with consistent metadata and the EventSink interface events are delivered
// through.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Envelope wraps an event payload with the metadata downstream consumers
// need for routing, deduplication, and correlation.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing.
	// Examples: "evaluation.call_classified", "evaluation.result_persisted".
	Type string `json:"type"`

	// Source names the component that emitted the event.
	Source string `json:"source"`

	// Version enables payload schema evolution; starts at "1.0.0".
	Version string `json:"version"`

	// Timestamp records when the event was emitted (wall clock).
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey makes re-emission during activity retries a no-op
	// for consumers. Derived from workflow identity plus event content.
	IdempotencyKey string `json:"idempotency_key"`

	// CorrelationID ties the event to a single call evaluation.
	CorrelationID string `json:"correlation_id"`

	// WorkflowID and RunID tie the event to the Temporal execution that
	// produced it.
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`

	// Payload is the event body; its schema varies by Type and Version.
	Payload json.RawMessage `json:"payload"`
}

// EventSink receives emitted events. Implementations must treat duplicate
// idempotency keys as no-ops and should return quickly; event delivery is
// best-effort and never blocks an evaluation.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards every event. Used in tests and when emission is
// disabled.
type NoOpEventSink struct{}

func (n *NoOpEventSink) Append(context.Context, Envelope) error { return nil }

// NewNoOpEventSink returns a sink that discards everything.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }

// LogEventSink writes events to a structured logger. It is the default sink
// for deployments without an event bus; the log stream doubles as an audit
// trail.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink returns a sink that logs each event at INFO.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) Append(ctx context.Context, envelope Envelope) error {
	s.logger.InfoContext(ctx, "event emitted",
		"event_id", envelope.ID,
		"event_type", envelope.Type,
		"source", envelope.Source,
		"correlation_id", envelope.CorrelationID,
		"workflow_id", envelope.WorkflowID,
		"idempotency_key", envelope.IdempotencyKey,
	)
	return nil
}
