package domain

import "fmt"

// Severity ranks a deep-dive finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Finding is one issue surfaced by the deep-dive analysis.
type Finding struct {
	Issue          string   `json:"issue" validate:"required,min=1"`
	Severity       Severity `json:"severity" validate:"required,oneof=Critical High Medium Low"`
	Evidence       string   `json:"evidence" validate:"required,min=1"`
	Recommendation string   `json:"recommendation" validate:"required,min=1"`
}

// DeepDive is the stage-3 result for calls the gate escalated. It is the
// only optional block in an EvaluationResult.
type DeepDive struct {
	Findings       []Finding `json:"findings" validate:"dive"`
	RootCause      string    `json:"root_cause" validate:"required,min=1"`
	CustomerImpact Severity  `json:"customer_impact" validate:"required,oneof=Critical High Medium Low"`
	UrgentActions  []string  `json:"urgent_actions"`
}

// Validate checks the deep-dive result against its contract rules.
func (d *DeepDive) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: deep dive: %w", ErrInvalidResult, err)
	}
	return nil
}
