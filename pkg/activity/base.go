// Package activity provides shared infrastructure for Temporal activity
// implementations: workflow context extraction, logging that is safe
// outside an activity context, and best-effort event emission.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/pennie-hq/eavesly/pkg/events"
)

// WorkflowContext is the execution identity extracted from a Temporal
// activity context, with stable fallbacks for test environments.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities carries the infrastructure every activity struct embeds:
// an event sink plus the safe logging/heartbeat helpers.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities returns BaseActivities wired to the given sink. A nil
// sink disables event emission.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext extracts workflow execution identity from the activity
// context. Outside a real activity context (plain unit tests) activity.GetInfo
// panics; the recover path substitutes stable test identifiers instead.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if recover() != nil {
				wfCtx.WorkflowID = "test-workflow"
				wfCtx.RunID = "test-run-" + uuid.NewString()[:8]
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// EmitEventSafe delivers an event with a short retry and never returns an
// error: events matter for observability, not correctness, so emission
// failure must not fail the activity that produced the result.
func (b *BaseActivities) EmitEventSafe(ctx context.Context, envelope events.Envelope, description string) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// RecordHeartbeat records an activity heartbeat; outside an activity
// context it is a no-op.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog logs at INFO through the activity logger. Outside an activity
// context the call is silently dropped instead of panicking.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover()
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError is SafeLog at ERROR level.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover()
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat records progress for long-running activities; safe to
// call from any context.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		_ = recover()
	}()
	activity.RecordHeartbeat(ctx, details...)
}
