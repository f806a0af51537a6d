package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/pennie-hq/eavesly/internal/evaluation"
	"github.com/pennie-hq/eavesly/internal/workflow"
)

// RegisterAll registers the evaluation workflows and activities with the
// worker. Call once during startup before the worker runs; registration is
// not thread-safe.
func RegisterAll(w sdkworker.Worker, acts *evaluation.Activities) {
	w.RegisterWorkflow(workflow.EvaluateCallWorkflow)
	w.RegisterWorkflow(workflow.EvaluateBatchWorkflow)

	w.RegisterActivity(acts.ClassifyCall)
	w.RegisterActivity(acts.EvaluateScriptAdherence)
	w.RegisterActivity(acts.EvaluateCompliance)
	w.RegisterActivity(acts.EvaluateCommunication)
	w.RegisterActivity(acts.PerformDeepDive)
	w.RegisterActivity(acts.PersistEvaluation)
}
