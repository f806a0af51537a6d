// Package evaluation implements the Temporal activities of the call-QA
// pipeline: one activity per LLM stage plus best-effort persistence. Each
// activity validates its input, resolves the stage's prompt template,
// executes the structured completion, and emits a pipeline event.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pennie-hq/eavesly/internal/domain"
	"github.com/pennie-hq/eavesly/internal/llm"
	"github.com/pennie-hq/eavesly/internal/prompt"
	"github.com/pennie-hq/eavesly/internal/store"
	"github.com/pennie-hq/eavesly/pkg/activity"
)

// Prompt template names. These are part of the contract with the prompt
// registry; renaming one here without renaming it there breaks the stage.
const (
	TemplateClassifier      = "call_qa_router_classifier"
	TemplateScriptDeviation = "call_qa_script_deviation"
	TemplateCompliance      = "call_qa_compliance"
	TemplateCommunication   = "call_qa_communication"
	TemplateDeepDive        = "call_qa_deep_dive"
)

// noRedFlags is the deep-dive template's placeholder when the classifier
// raised none.
const noRedFlags = "None identified"

// Activities bundles the evaluation activities and their collaborators.
type Activities struct {
	activity.BaseActivities

	resolver prompt.Resolver
	llm      llm.Client
	results  store.ResultStore
}

// NewActivities wires the activities to their collaborators.
func NewActivities(
	base activity.BaseActivities,
	resolver prompt.Resolver,
	llmClient llm.Client,
	results store.ResultStore,
) *Activities {
	return &Activities{
		BaseActivities: base,
		resolver:       resolver,
		llm:            llmClient,
		results:        results,
	}
}

// ClassifyCall runs the stage-1 router classifier. Its output scopes every
// later stage, so failure here is fatal to the evaluation.
func (a *Activities) ClassifyCall(ctx context.Context, in domain.ClassifyCallInput) (*domain.CallClassification, error) {
	if err := in.Validate(); err != nil {
		return nil, nonRetryable(errTypeValidation, err)
	}

	clientData, err := json.MarshalIndent(in.Request.ClientData, "", "  ")
	if err != nil {
		return nil, nonRetryable(errTypeValidation, fmt.Errorf("serialize client data: %w", err))
	}

	classification, err := completeAs[domain.CallClassification](ctx, a, TemplateClassifier, llm.ShapeClassification, map[string]any{
		"client_data":      string(clientData),
		"migo_call_script": in.Request.IdealScript,
		"transcript":       in.Request.Transcript.Transcript,
	})
	if err != nil {
		return nil, err
	}

	a.emitStageEvent(ctx, eventCallClassified, in.Request.CallID, map[string]any{
		"call_outcome":       classification.CallOutcome,
		"red_flags":          len(classification.RedFlags),
		"requires_deep_dive": classification.RequiresDeepDive,
	})
	return classification, nil
}

// EvaluateScriptAdherence runs the stage-2 adherence branch over every
// attempted script section.
func (a *Activities) EvaluateScriptAdherence(ctx context.Context, in domain.ScriptAdherenceInput) (*domain.ScriptAdherence, error) {
	if err := in.Validate(); err != nil {
		return nil, nonRetryable(errTypeValidation, err)
	}

	progress := in.Request.ClientData.ScriptProgress
	expectedSections, err := json.Marshal(progress.SectionsToEvaluate())
	if err != nil {
		return nil, nonRetryable(errTypeValidation, fmt.Errorf("serialize sections: %w", err))
	}
	attempted, err := json.Marshal(progress.SectionsAttempted)
	if err != nil {
		return nil, nonRetryable(errTypeValidation, fmt.Errorf("serialize sections: %w", err))
	}

	adherence, err := completeAs[domain.ScriptAdherence](ctx, a, TemplateScriptDeviation, llm.ShapeScriptAdherence, map[string]any{
		"actual_transcript":  in.Request.Transcript.Transcript,
		"expected_sections":  string(expectedSections),
		"ideal_transcript":   in.Request.IdealScript,
		"sections_attempted": string(attempted),
	})
	if err != nil {
		return nil, err
	}

	a.emitStageEvent(ctx, eventBranchCompleted, in.Request.CallID, map[string]any{
		"branch":          llm.ShapeScriptAdherence,
		"sections":        len(adherence.Sections),
		"critical_misses": adherence.CriticalMissCount(),
	})
	return adherence, nil
}

// EvaluateCompliance runs the stage-2 regulatory compliance branch.
func (a *Activities) EvaluateCompliance(ctx context.Context, in domain.ComplianceInput) (*domain.Compliance, error) {
	if err := in.Validate(); err != nil {
		return nil, nonRetryable(errTypeValidation, err)
	}

	compliance, err := completeAs[domain.Compliance](ctx, a, TemplateCompliance, llm.ShapeCompliance,
		map[string]any{"transcript": in.Request.Transcript.Transcript})
	if err != nil {
		return nil, err
	}

	a.emitStageEvent(ctx, eventBranchCompleted, in.Request.CallID, map[string]any{
		"branch":     llm.ShapeCompliance,
		"violations": len(compliance.Summary.Violations),
		"coaching":   len(compliance.Summary.CoachingNeeded),
	})
	return compliance, nil
}

// EvaluateCommunication runs the stage-2 soft-skills branch.
func (a *Activities) EvaluateCommunication(ctx context.Context, in domain.CommunicationInput) (*domain.Communication, error) {
	if err := in.Validate(); err != nil {
		return nil, nonRetryable(errTypeValidation, err)
	}

	communication, err := completeAs[domain.Communication](ctx, a, TemplateCommunication, llm.ShapeCommunication,
		map[string]any{"transcript": in.Request.Transcript.Transcript})
	if err != nil {
		return nil, err
	}

	a.emitStageEvent(ctx, eventBranchCompleted, in.Request.CallID, map[string]any{
		"branch":   llm.ShapeCommunication,
		"exceeded": len(communication.Summary.Exceeded),
		"missed":   len(communication.Summary.Missed),
	})
	return communication, nil
}

// PerformDeepDive runs the stage-3 root-cause analysis over the stage-1
// and stage-2 evidence.
func (a *Activities) PerformDeepDive(ctx context.Context, in domain.DeepDiveInput) (*domain.DeepDive, error) {
	if err := in.Validate(); err != nil {
		return nil, nonRetryable(errTypeValidation, err)
	}

	evidence, err := json.MarshalIndent(struct {
		Classification domain.CallClassification `json:"classification"`
		Compliance     domain.Compliance         `json:"compliance"`
	}{in.Classification, in.Compliance}, "", "  ")
	if err != nil {
		return nil, nonRetryable(errTypeValidation, fmt.Errorf("serialize evidence: %w", err))
	}

	redFlags := noRedFlags
	if len(in.Classification.RedFlags) > 0 {
		redFlags = strings.Join(in.Classification.RedFlags, "\n")
	}

	deepDive, err := completeAs[domain.DeepDive](ctx, a, TemplateDeepDive, llm.ShapeDeepDive, map[string]any{
		"evaluation_results": string(evidence),
		"red_flags":          redFlags,
		"transcript":         in.Request.Transcript.Transcript,
	})
	if err != nil {
		return nil, err
	}

	a.emitStageEvent(ctx, eventDeepDiveCompleted, in.Request.CallID, map[string]any{
		"findings":        len(deepDive.Findings),
		"customer_impact": deepDive.CustomerImpact,
	})
	return deepDive, nil
}

// PersistEvaluation upserts the finished evaluation. The workflow treats
// its errors as log-only; the row can be backfilled from workflow history
// if the store was down.
func (a *Activities) PersistEvaluation(ctx context.Context, in domain.PersistEvaluationInput) error {
	if err := in.Validate(); err != nil {
		return nonRetryable(errTypeValidation, err)
	}

	record := &store.Record{
		CallID:           in.CallID,
		AgentID:          in.AgentID,
		CorrelationID:    in.CorrelationID,
		ProcessingTimeMs: in.ProcessingTimeMs,
		OverallScore:     in.OverallScore,
		EvaluatedAt:      time.Now().UTC(),
		Version:          store.EvaluationVersion,
		Classification:   in.Result.Classification,
		ScriptDeviation:  in.Result.ScriptDeviation,
		Compliance:       in.Result.Compliance,
		Communication:    in.Result.Communication,
		DeepDive:         in.Result.DeepDive,
	}

	if err := a.results.UpsertEvaluation(ctx, record); err != nil {
		return retryable(errTypePersistence, err)
	}

	a.emitStageEvent(ctx, eventResultPersisted, in.CallID, map[string]any{
		"correlation_id": in.CorrelationID,
		"overall_score":  in.OverallScore,
	})
	return nil
}

// completeAs resolves the stage template and executes the structured
// completion, classifying failures for the workflow.
func completeAs[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, a *Activities, template string, shape llm.Shape, variables map[string]any) (*T, error) {
	a.RecordHeartbeat(ctx, "resolving template "+template)

	descriptor, err := a.resolver.Resolve(ctx, template, variables)
	if err != nil {
		activity.SafeLogError(ctx, "template resolution failed",
			"template", template, "error", err)
		return nil, classifyTemplateError(err)
	}

	a.RecordHeartbeat(ctx, "executing completion for "+template)

	out, err := llm.CompleteStructured[T, PT](ctx, a.llm, &llm.Request{
		Template:   template,
		Shape:      shape,
		Descriptor: *descriptor,
	})
	if err != nil {
		activity.SafeLogError(ctx, "structured completion failed",
			"template", template, "shape", shape, "error", err)
		return nil, classifyCompletionError(err)
	}
	return out, nil
}
