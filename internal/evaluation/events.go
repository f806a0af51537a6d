package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pennie-hq/eavesly/pkg/activity"
	"github.com/pennie-hq/eavesly/pkg/events"
)

// Pipeline event types, one per stage milestone.
const (
	eventCallClassified    = "evaluation.call_classified"
	eventBranchCompleted   = "evaluation.branch_completed"
	eventDeepDiveCompleted = "evaluation.deep_dive_completed"
	eventResultPersisted   = "evaluation.result_persisted"
)

// eventSource names this component in emitted envelopes.
const eventSource = "evaluation-activity"

// eventSchemaVersion is the payload schema version for all stage events.
const eventSchemaVersion = "1.0.0"

// emitStageEvent publishes a stage milestone for the given call. Emission
// is best-effort; the activity result stands whether or not the event
// lands.
func (a *Activities) emitStageEvent(ctx context.Context, eventType, callID string, payload map[string]any) {
	wfCtx := a.GetWorkflowContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		activity.SafeLogError(ctx, "stage event payload not serializable",
			"event_type", eventType, "call_id", callID, "error", err)
		return
	}

	envelope := events.Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventSchemaVersion,
		Timestamp: time.Now().UTC(),
		// Re-running the activity for the same execution re-derives the
		// same key, so consumers drop the duplicate.
		IdempotencyKey: fmt.Sprintf("%s-%s-%s-%s", wfCtx.WorkflowID, wfCtx.RunID, callID, eventType),
		CorrelationID:  callID,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        body,
	}

	a.EmitEventSafe(ctx, envelope, eventType)
}
