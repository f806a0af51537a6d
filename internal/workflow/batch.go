package workflow

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/pennie-hq/eavesly/internal/domain"
)

// defaultMaxBatchSize caps a batch when the request does not set its own
// limit. Kept small: each call fans out into up to six model calls.
const defaultMaxBatchSize = 5

// EvaluateBatchWorkflow evaluates several calls as child workflows with
// per-call failure isolation: one bad call reports an error in its slot
// while the rest of the batch completes normally.
func EvaluateBatchWorkflow(ctx workflow.Context, req domain.EvaluateBatchRequest) (*domain.EvaluateBatchResponse, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "call-qa-batch.v", workflow.DefaultVersion, currentVersion)

	logger := workflow.GetLogger(ctx)
	started := workflow.Now(ctx)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid batch request", "ValidationError", err)
	}

	maxCalls := req.MaxCalls
	if maxCalls == 0 {
		maxCalls = defaultMaxBatchSize
	}
	if len(req.Calls) > maxCalls {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("batch of %d calls exceeds the %d call limit", len(req.Calls), maxCalls),
			"ValidationError", domain.ErrBatchTooLarge)
	}

	batchID, err := newCorrelationID(ctx, "batch")
	if err != nil {
		return nil, err
	}
	logger.Info("starting batch evaluation", "batch_id", batchID, "calls", len(req.Calls))

	// Start every child before collecting any so the calls evaluate in
	// parallel.
	futures := make([]workflow.ChildWorkflowFuture, len(req.Calls))
	for i, call := range req.Calls {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("%s-%s", batchID, call.CallID),
		})
		futures[i] = workflow.ExecuteChildWorkflow(childCtx, EvaluateCallWorkflow, call)
	}

	resp := &domain.EvaluateBatchResponse{
		BatchCorrelationID: batchID,
		Results:            make([]domain.BatchCallResult, 0, len(req.Calls)),
	}
	for i, future := range futures {
		callID := req.Calls[i].CallID

		var callResp domain.EvaluateCallResponse
		if err := future.Get(ctx, &callResp); err != nil {
			logger.Error("batch call failed",
				"batch_id", batchID, "call_id", callID, "error", err)
			resp.Failed++
			resp.Results = append(resp.Results, domain.BatchCallResult{
				CallID: callID,
				Error:  err.Error(),
			})
			continue
		}

		if callResp.Status == domain.StatusSkipped {
			resp.Skipped++
		} else {
			resp.Completed++
		}
		resp.Results = append(resp.Results, domain.BatchCallResult{
			CallID:   callID,
			Response: &callResp,
		})
	}

	resp.Timestamp = workflow.Now(ctx)
	resp.ProcessingTimeMs = workflow.Now(ctx).Sub(started).Milliseconds()
	logger.Info("batch evaluation finished",
		"batch_id", batchID,
		"completed", resp.Completed,
		"skipped", resp.Skipped,
		"failed", resp.Failed)
	return resp, nil
}
