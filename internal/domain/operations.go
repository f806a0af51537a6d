package domain

import "fmt"

// Activity input contracts. Each stage activity validates its input before
// touching a collaborator so malformed payloads fail fast and
// non-retryably.

// ClassifyCallInput feeds the stage-1 router classifier.
type ClassifyCallInput struct {
	Request EvaluateCallRequest `json:"request"`
}

func (in *ClassifyCallInput) Validate() error {
	return in.Request.Validate()
}

// ScriptAdherenceInput feeds the stage-2 adherence evaluation. It carries
// the classification because adherence scope derives from it.
type ScriptAdherenceInput struct {
	Request        EvaluateCallRequest `json:"request"`
	Classification CallClassification  `json:"classification"`
}

func (in *ScriptAdherenceInput) Validate() error {
	if err := in.Request.Validate(); err != nil {
		return err
	}
	return in.Classification.Validate()
}

// ComplianceInput feeds the stage-2 compliance evaluation.
type ComplianceInput struct {
	Request EvaluateCallRequest `json:"request"`
}

func (in *ComplianceInput) Validate() error {
	return in.Request.Validate()
}

// CommunicationInput feeds the stage-2 communication evaluation.
type CommunicationInput struct {
	Request EvaluateCallRequest `json:"request"`
}

func (in *CommunicationInput) Validate() error {
	return in.Request.Validate()
}

// DeepDiveInput feeds the stage-3 analysis with the stage-1 and stage-2
// evidence it reasons over.
type DeepDiveInput struct {
	Request        EvaluateCallRequest `json:"request"`
	Classification CallClassification  `json:"classification"`
	Compliance     Compliance          `json:"compliance"`
}

func (in *DeepDiveInput) Validate() error {
	if err := in.Request.Validate(); err != nil {
		return err
	}
	if err := in.Classification.Validate(); err != nil {
		return err
	}
	return in.Compliance.Validate()
}

// PersistEvaluationInput carries everything the results store needs to
// upsert one evaluation row.
type PersistEvaluationInput struct {
	CorrelationID    string           `json:"correlation_id" validate:"required,min=1"`
	CallID           string           `json:"call_id" validate:"required,min=1"`
	AgentID          string           `json:"agent_id" validate:"required,min=1"`
	Result           EvaluationResult `json:"result" validate:"required"`
	OverallScore     int              `json:"overall_score" validate:"required,min=1,max=100"`
	ProcessingTimeMs int64            `json:"processing_time_ms" validate:"gte=0"`
}

func (in *PersistEvaluationInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: persist input: %w", ErrInvalidRequest, err)
	}
	return nil
}
