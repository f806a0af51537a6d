package domain

import "fmt"

// ComplianceStatus grades a single compliance checkpoint.
type ComplianceStatus string

const (
	ComplianceNoInfraction   ComplianceStatus = "No Infraction"
	ComplianceCoachingNeeded ComplianceStatus = "Coaching Needed"
	ComplianceViolation      ComplianceStatus = "Violation"
	ComplianceNA             ComplianceStatus = "N/A"
)

// ComplianceItem is one evaluated compliance checkpoint with optional
// supporting detail.
type ComplianceItem struct {
	Name    string           `json:"name" validate:"required,min=1"`
	Status  ComplianceStatus `json:"status" validate:"required,oneof='No Infraction' 'Coaching Needed' Violation N/A"`
	Details string           `json:"details,omitempty"`
}

// ComplianceSummary buckets checkpoint names by their status. The
// violations and coaching buckets drive the deep-dive gate and the score.
type ComplianceSummary struct {
	NoInfraction   []string `json:"no_infraction"`
	CoachingNeeded []string `json:"coaching_needed"`
	Violations     []string `json:"violations"`
	NotApplicable  []string `json:"not_applicable"`
}

// Compliance is the stage-2 compliance result.
type Compliance struct {
	Items   []ComplianceItem  `json:"items" validate:"dive"`
	Summary ComplianceSummary `json:"summary"`
}

// Validate checks the compliance result against its contract rules.
func (c *Compliance) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: compliance: %w", ErrInvalidResult, err)
	}
	return nil
}

// HasViolations reports whether any checkpoint was graded a violation.
func (c *Compliance) HasViolations() bool {
	return len(c.Summary.Violations) > 0
}
