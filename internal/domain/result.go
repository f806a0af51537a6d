package domain

import (
	"fmt"
	"time"
)

// EvaluationResult assembles the outputs of every stage that ran. DeepDive
// is nil when the gate did not fire or the analysis failed.
type EvaluationResult struct {
	Classification CallClassification `json:"classification" validate:"required"`

	// ScriptDeviation keeps its historical wire name; it is the
	// stage-2 script adherence breakdown.
	ScriptDeviation ScriptAdherence `json:"script_deviation" validate:"required"`

	Compliance    Compliance    `json:"compliance" validate:"required"`
	Communication Communication `json:"communication" validate:"required"`
	DeepDive      *DeepDive     `json:"deep_dive,omitempty" validate:"omitempty"`
}

// Validate checks the assembled result against its contract rules.
func (r *EvaluationResult) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return nil
}

// EvaluationSummary is the human-facing digest of an evaluation, capped so
// a coach can read it at a glance.
type EvaluationSummary struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	CriticalIssues      []string `json:"critical_issues"`
}

// EvaluationStatus distinguishes evaluated calls from admitted-but-skipped
// ones.
type EvaluationStatus string

const (
	StatusCompleted EvaluationStatus = "completed"
	StatusSkipped   EvaluationStatus = "skipped"
)

// SkipReasonTalkTime is the only skip reason currently produced.
const SkipReasonTalkTime = "talk_time_too_short"

// EvaluateCallResponse is the caller-facing wrapper around an evaluation.
// For skipped calls only the envelope fields and SkipReason are set.
type EvaluateCallResponse struct {
	CallID           string           `json:"call_id"`
	CorrelationID    string           `json:"correlation_id"`
	Timestamp        time.Time        `json:"timestamp"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	Status           EvaluationStatus `json:"status"`

	SkipReason string `json:"skip_reason,omitempty"`

	Evaluation   *EvaluationResult  `json:"evaluation,omitempty"`
	OverallScore int                `json:"overall_score,omitempty"`
	Summary      *EvaluationSummary `json:"summary,omitempty"`
}

// BatchCallResult reports one call's outcome inside a batch. Exactly one of
// Response and Error is set.
type BatchCallResult struct {
	CallID   string                `json:"call_id"`
	Response *EvaluateCallResponse `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// EvaluateBatchResponse summarizes a batch run.
type EvaluateBatchResponse struct {
	BatchCorrelationID string            `json:"batch_correlation_id"`
	Timestamp          time.Time         `json:"timestamp"`
	ProcessingTimeMs   int64             `json:"processing_time_ms"`
	Results            []BatchCallResult `json:"results"`
	Completed          int               `json:"completed"`
	Skipped            int               `json:"skipped"`
	Failed             int               `json:"failed"`
}
