// Package workflow orchestrates call evaluations as deterministic Temporal
// workflows: a staged pipeline per call and a fan-out wrapper for batches.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/pennie-hq/eavesly/internal/domain"
	"github.com/pennie-hq/eavesly/internal/evaluation"
)

// stageTimeout bounds a single stage activity. It must sit above the
// combined worst case of the collaborators' retry budgets (template
// resolution plus completion, each up to ~100s of attempts and backoff).
const stageTimeout = 5 * time.Minute

// EvaluateCallWorkflow runs the full evaluation pipeline for one call:
// classification, three parallel sub-evaluations with per-branch fallback,
// a conditional deep dive, deterministic scoring, and best-effort
// persistence.
func EvaluateCallWorkflow(ctx workflow.Context, req domain.EvaluateCallRequest) (*domain.EvaluateCallResponse, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "call-qa.v", workflow.DefaultVersion, currentVersion)

	logger := workflow.GetLogger(ctx)
	started := workflow.Now(ctx)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid evaluation request", "ValidationError", err)
	}

	correlationID, err := newCorrelationID(ctx, "eval")
	if err != nil {
		return nil, err
	}

	if req.BelowTalkTimeThreshold() {
		logger.Info("call below talk-time threshold, skipping evaluation",
			"call_id", req.CallID,
			"talk_time", req.Transcript.Metadata.TalkTime)
		return &domain.EvaluateCallResponse{
			CallID:           req.CallID,
			CorrelationID:    correlationID,
			Timestamp:        workflow.Now(ctx),
			ProcessingTimeMs: workflow.Now(ctx).Sub(started).Milliseconds(),
			Status:           domain.StatusSkipped,
			SkipReason:       domain.SkipReasonTalkTime,
		}, nil
	}

	ctx = workflow.WithActivityOptions(ctx, stageActivityOptions())

	var acts *evaluation.Activities

	// Stage 1. Classification scopes everything after it, so its failure
	// fails the evaluation; the returned message stays generic and the
	// correlation id links operators to the real error in history.
	var classification domain.CallClassification
	err = workflow.ExecuteActivity(ctx, acts.ClassifyCall,
		domain.ClassifyCallInput{Request: req}).Get(ctx, &classification)
	if err != nil {
		logger.Error("classification failed",
			"call_id", req.CallID,
			"correlation_id", correlationID,
			"error", err)
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("evaluation failed - unable to process call %s (correlation id %s)", req.CallID, correlationID),
			"ClassificationError", err)
	}

	// Stage 2. All three branches start before any result is collected so
	// they run in parallel; each failed branch degrades to its fallback
	// instead of failing the call.
	adherenceFuture := workflow.ExecuteActivity(ctx, acts.EvaluateScriptAdherence,
		domain.ScriptAdherenceInput{Request: req, Classification: classification})
	complianceFuture := workflow.ExecuteActivity(ctx, acts.EvaluateCompliance,
		domain.ComplianceInput{Request: req})
	communicationFuture := workflow.ExecuteActivity(ctx, acts.EvaluateCommunication,
		domain.CommunicationInput{Request: req})

	adherence := settle(ctx, adherenceFuture, req.CallID,
		domain.FallbackShapeScriptAdherence, domain.FallbackScriptAdherence)
	compliance := settle(ctx, complianceFuture, req.CallID,
		domain.FallbackShapeCompliance, domain.FallbackCompliance)
	communication := settle(ctx, communicationFuture, req.CallID,
		domain.FallbackShapeCommunication, domain.FallbackCommunication)

	result := domain.EvaluationResult{
		Classification:  classification,
		ScriptDeviation: adherence,
		Compliance:      compliance,
		Communication:   communication,
	}

	// Stage 3. A failed deep dive is omitted rather than substituted: a
	// fabricated root-cause analysis would be worse than none.
	if domain.RequiresDeepDive(&classification, &compliance) {
		var deepDive domain.DeepDive
		err := workflow.ExecuteActivity(ctx, acts.PerformDeepDive, domain.DeepDiveInput{
			Request:        req,
			Classification: classification,
			Compliance:     compliance,
		}).Get(ctx, &deepDive)
		if err != nil {
			logger.Warn("deep dive failed, continuing without it",
				"call_id", req.CallID, "error", err)
		} else {
			result.DeepDive = &deepDive
		}
	}

	score := domain.CalculateOverallScore(&result)
	summary := domain.GenerateSummary(&result)
	processingMs := workflow.Now(ctx).Sub(started).Milliseconds()

	// Persistence is best-effort: the caller still gets the evaluation and
	// the row can be backfilled from workflow history.
	err = workflow.ExecuteActivity(ctx, acts.PersistEvaluation, domain.PersistEvaluationInput{
		CorrelationID:    correlationID,
		CallID:           req.CallID,
		AgentID:          req.AgentID,
		Result:           result,
		OverallScore:     score,
		ProcessingTimeMs: processingMs,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("persistence failed, returning unstored result",
			"call_id", req.CallID,
			"correlation_id", correlationID,
			"error", err)
	}

	return &domain.EvaluateCallResponse{
		CallID:           req.CallID,
		CorrelationID:    correlationID,
		Timestamp:        workflow.Now(ctx),
		ProcessingTimeMs: processingMs,
		Status:           domain.StatusCompleted,
		Evaluation:       &result,
		OverallScore:     score,
		Summary:          &summary,
	}, nil
}

// stageActivityOptions bounds each stage with the overall deadline only.
// The HTTP collaborators inside the activities own the retry budget
// (3 attempts with backoff, up to ~100s of silence during one completion),
// so there is no heartbeat deadline and no Temporal-level retry: either
// would cut the collaborators' budget short or multiply it.
func stageActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: stageTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
}

// settle collects one parallel branch, substituting its fallback value on
// failure. The fallback swap is logged so degraded evaluations are
// traceable.
func settle[T any](
	ctx workflow.Context,
	future workflow.Future,
	callID string,
	shape domain.FallbackShape,
	fallback func() T,
) T {
	var out T
	if err := future.Get(ctx, &out); err != nil {
		workflow.GetLogger(ctx).Warn("branch failed, substituting fallback",
			"branch", shape.String(),
			"call_id", callID,
			"error", err)
		return fallback()
	}
	return out
}

// newCorrelationID mints a prefixed random id through a side effect so
// replays see the recorded value.
func newCorrelationID(ctx workflow.Context, prefix string) (string, error) {
	var id string
	err := workflow.SideEffect(ctx, func(workflow.Context) any {
		hex := strings.ReplaceAll(uuid.NewString(), "-", "")
		return prefix + "_" + hex[:8]
	}).Get(&id)
	if err != nil {
		return "", fmt.Errorf("generate correlation id: %w", err)
	}
	return id, nil
}
