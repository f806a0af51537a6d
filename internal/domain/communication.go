package domain

import "fmt"

// CommunicationSkill is one evaluated soft skill with an optional
// transcript example.
type CommunicationSkill struct {
	Skill   string            `json:"skill" validate:"required,min=1"`
	Rating  PerformanceRating `json:"rating" validate:"required,oneof=Exceeded Met Missed N/A"`
	Example string            `json:"example,omitempty"`
}

// CommunicationSummary buckets skill names by rating.
type CommunicationSummary struct {
	Exceeded []string `json:"exceeded"`
	Met      []string `json:"met"`
	Missed   []string `json:"missed"`
}

// Communication is the stage-2 communication-skills result.
type Communication struct {
	Skills  []CommunicationSkill `json:"skills" validate:"dive"`
	Summary CommunicationSummary `json:"summary"`
}

// Validate checks the communication result against its contract rules.
func (c *Communication) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: communication: %w", ErrInvalidResult, err)
	}
	return nil
}
