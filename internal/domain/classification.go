package domain

import "fmt"

// CallOutcome is the router classifier's verdict on how the call ended.
type CallOutcome string

const (
	CallOutcomeCompleted  CallOutcome = "completed"
	CallOutcomeScheduled  CallOutcome = "scheduled"
	CallOutcomeIncomplete CallOutcome = "incomplete"
	CallOutcomeLost       CallOutcome = "lost"
)

// AdherenceLevel is the classifier's quick per-section read of script
// adherence, refined later by the dedicated adherence evaluation.
type AdherenceLevel string

const (
	AdherenceHigh   AdherenceLevel = "high"
	AdherenceMedium AdherenceLevel = "medium"
	AdherenceLow    AdherenceLevel = "low"
)

// CallClassification is the stage-1 result. It scopes the rest of the
// pipeline: the adherence evaluation is seeded with it and the deep-dive
// gate reads its flags.
type CallClassification struct {
	SectionsCompleted []int `json:"sections_completed"`
	SectionsAttempted []int `json:"sections_attempted"`

	CallOutcome CallOutcome `json:"call_outcome" validate:"required,oneof=completed scheduled incomplete lost"`

	// ScriptAdherencePreview maps section identifiers to a coarse
	// adherence level.
	ScriptAdherencePreview map[string]AdherenceLevel `json:"script_adherence_preview" validate:"omitempty,dive,oneof=high medium low"`

	RedFlags []string `json:"red_flags"`

	// RequiresDeepDive is the classifier's explicit escalation flag; it
	// forces stage 3 regardless of the severity score.
	RequiresDeepDive bool `json:"requires_deep_dive"`

	// EarlyTerminationJustified reports whether an early hang-up had a
	// legitimate reason (wrong number, do-not-call request, and so on).
	EarlyTerminationJustified bool `json:"early_termination_justified"`
}

// Validate checks the classification against its contract rules.
func (c *CallClassification) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: classification: %w", ErrInvalidResult, err)
	}
	return nil
}

// LowAdherenceCount counts sections the classifier previewed as low
// adherence.
func (c *CallClassification) LowAdherenceCount() int {
	n := 0
	for _, level := range c.ScriptAdherencePreview {
		if level == AdherenceLow {
			n++
		}
	}
	return n
}
