package domain

import (
	"fmt"
	"time"
)

// CallContext distinguishes a first outreach from a follow-up conversation.
// The values are part of the external contract and feed prompt templates
// verbatim.
type CallContext string

const (
	CallContextFirst    CallContext = "First Call"
	CallContextFollowUp CallContext = "Follow-up Call"
)

// MinimumTalkTimeSeconds is the admission threshold: calls with less agent
// talk time than this are not worth an LLM pass and are skipped outright.
const MinimumTalkTimeSeconds = 60

// TranscriptMetadata carries the call recording facts that accompany a
// transcript.
type TranscriptMetadata struct {
	// Duration is the total call length in seconds.
	Duration int64 `json:"duration" validate:"required,gt=0"`

	// Timestamp is when the call took place.
	Timestamp time.Time `json:"timestamp" validate:"required"`

	// TalkTime is the agent talk time in seconds. Zero means the dialer
	// did not report it, in which case the call is always evaluated.
	TalkTime int64 `json:"talk_time,omitempty" validate:"omitempty,gte=0"`

	// Disposition is the dialer's final disposition code for the call.
	Disposition string `json:"disposition" validate:"required,min=1"`

	CampaignName string `json:"campaign_name,omitempty"`
}

// TranscriptData is the transcript text plus its recording metadata.
type TranscriptData struct {
	Transcript string             `json:"transcript" validate:"required,min=1"`
	Metadata   TranscriptMetadata `json:"metadata" validate:"required"`
}

// ScriptProgress records how far through the sales script the agent got and
// why the call ended.
type ScriptProgress struct {
	SectionsAttempted    []int  `json:"sections_attempted" validate:"required,min=1,dive,gte=0"`
	LastCompletedSection int    `json:"last_completed_section" validate:"gte=0"`
	TerminationReason    string `json:"termination_reason" validate:"required,min=1"`
	PitchOutcome         string `json:"pitch_outcome,omitempty"`
}

// SectionsToEvaluate returns the script sections the adherence evaluation
// should cover. Every attempted section is evaluated regardless of whether
// it was completed; this is the single place to narrow scope if that ever
// changes.
func (p *ScriptProgress) SectionsToEvaluate() []int {
	out := make([]int, len(p.SectionsAttempted))
	copy(out, p.SectionsAttempted)
	return out
}

// FinancialProfile is the client's financial context, when known. All
// fields are optional; pointers distinguish absent from zero.
type FinancialProfile struct {
	AnnualIncome       *float64 `json:"annual_income,omitempty" validate:"omitempty,gt=0"`
	DTIRatio           *float64 `json:"dti_ratio,omitempty" validate:"omitempty,gte=0,lte=1"`
	LoanApprovalStatus string   `json:"loan_approval_status,omitempty" validate:"omitempty,oneof=approved denied pending"`
	HasExistingDebt    *bool    `json:"has_existing_debt,omitempty"`
}

// ClientData bundles everything known about the client side of the call.
// It is serialized wholesale into the classification prompt.
type ClientData struct {
	LeadID           string            `json:"lead_id" validate:"required,min=1"`
	CampaignID       int64             `json:"campaign_id" validate:"required,gt=0"`
	ScriptProgress   ScriptProgress    `json:"script_progress" validate:"required"`
	FinancialProfile *FinancialProfile `json:"financial_profile,omitempty" validate:"omitempty"`
}

// EvaluateCallRequest is the immutable input to a call evaluation. It is
// validated once at workflow entry and passed read-only through every
// stage.
type EvaluateCallRequest struct {
	CallID      string         `json:"call_id" validate:"required,min=1"`
	AgentID     string         `json:"agent_id" validate:"required,min=1"`
	CallContext CallContext    `json:"call_context" validate:"required,oneof='First Call' 'Follow-up Call'"`
	Transcript  TranscriptData `json:"transcript" validate:"required"`
	IdealScript string         `json:"ideal_script" validate:"required,min=1"`
	ClientData  ClientData     `json:"client_data" validate:"required"`
}

// Validate checks the request against its contract rules.
func (r *EvaluateCallRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// BelowTalkTimeThreshold reports whether the call should be skipped because
// the reported talk time is under the minimum. An unreported talk time
// never causes a skip.
func (r *EvaluateCallRequest) BelowTalkTimeThreshold() bool {
	t := r.Transcript.Metadata.TalkTime
	return t > 0 && t < MinimumTalkTimeSeconds
}

// EvaluateBatchRequest asks for several calls to be evaluated with per-call
// failure isolation.
type EvaluateBatchRequest struct {
	Calls []EvaluateCallRequest `json:"calls" validate:"required,min=1"`

	// MaxCalls caps the batch size. Zero means the deployment default.
	MaxCalls int `json:"max_calls,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks batch-level rules only; each call is validated by its own
// evaluation workflow.
func (r *EvaluateBatchRequest) Validate() error {
	if len(r.Calls) == 0 {
		return ErrEmptyBatch
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}
