package domain

import "fmt"

// PerformanceRating grades a single evaluated dimension. The capitalized
// values are part of the LLM output contract.
type PerformanceRating string

const (
	RatingExceeded PerformanceRating = "Exceeded"
	RatingMet      PerformanceRating = "Met"
	RatingMissed   PerformanceRating = "Missed"
	RatingNA       PerformanceRating = "N/A"
)

// SectionEvaluation grades one script section across four dimensions and
// lists anything critical the agent failed to deliver.
type SectionEvaluation struct {
	ContentAccuracy   PerformanceRating `json:"content_accuracy" validate:"required,oneof=Exceeded Met Missed N/A"`
	SequenceAdherence PerformanceRating `json:"sequence_adherence" validate:"required,oneof=Exceeded Met Missed N/A"`
	LanguagePhrasing  PerformanceRating `json:"language_phrasing" validate:"required,oneof=Exceeded Met Missed N/A"`
	Customization     PerformanceRating `json:"customization" validate:"required,oneof=Exceeded Met Missed N/A"`

	CriticalMisses []string `json:"critical_misses"`

	// Quote is a supporting transcript excerpt, when the model found one.
	Quote string `json:"quote,omitempty"`
}

// ScriptAdherence is the stage-2 adherence result: a per-section breakdown
// keyed by section identifier.
type ScriptAdherence struct {
	Sections map[string]SectionEvaluation `json:"sections" validate:"dive"`
}

// Validate checks the adherence result against its contract rules.
func (s *ScriptAdherence) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: script adherence: %w", ErrInvalidResult, err)
	}
	return nil
}

// CriticalMissCount totals critical misses across all sections.
func (s *ScriptAdherence) CriticalMissCount() int {
	n := 0
	for _, section := range s.Sections {
		n += len(section.CriticalMisses)
	}
	return n
}
