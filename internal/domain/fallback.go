package domain

// Fallback values for failed evaluation stages. Each parallel branch that
// fails is replaced with a conservative stand-in that flags the call for
// manual review instead of failing the whole evaluation. The shapes that
// have a fallback form a closed enumeration, so an unknown shape is
// unrepresentable rather than a runtime error.

// FallbackShape enumerates the result shapes that have a fallback value.
type FallbackShape uint8

const (
	FallbackShapeClassification FallbackShape = iota
	FallbackShapeScriptAdherence
	FallbackShapeCompliance
	FallbackShapeCommunication
)

func (s FallbackShape) String() string {
	switch s {
	case FallbackShapeClassification:
		return "classification"
	case FallbackShapeScriptAdherence:
		return "script_adherence"
	case FallbackShapeCompliance:
		return "compliance"
	case FallbackShapeCommunication:
		return "communication"
	}
	return "unknown"
}

// FallbackClassification is the stand-in for a failed classification. The
// orchestrator treats classification failure as fatal and never consumes
// it, but the mapping is total over the enum for callers that do.
func FallbackClassification() CallClassification {
	return CallClassification{
		SectionsCompleted:         []int{},
		SectionsAttempted:         []int{},
		CallOutcome:               CallOutcomeIncomplete,
		ScriptAdherencePreview:    map[string]AdherenceLevel{},
		RedFlags:                  []string{"Evaluation failed - manual review required"},
		RequiresDeepDive:          true,
		EarlyTerminationJustified: false,
	}
}

// FallbackScriptAdherence is the stand-in for a failed adherence branch: no
// sections evaluated, so it neither penalizes nor credits the agent.
func FallbackScriptAdherence() ScriptAdherence {
	return ScriptAdherence{Sections: map[string]SectionEvaluation{}}
}

// FallbackCompliance is the stand-in for a failed compliance branch. The
// synthetic violation forces a deep dive and surfaces in the summary.
func FallbackCompliance() Compliance {
	return Compliance{
		Items: []ComplianceItem{},
		Summary: ComplianceSummary{
			NoInfraction:   []string{},
			CoachingNeeded: []string{},
			Violations:     []string{"Manual review required due to evaluation failure"},
			NotApplicable:  []string{},
		},
	}
}

// FallbackCommunication is the stand-in for a failed communication branch.
func FallbackCommunication() Communication {
	return Communication{
		Skills: []CommunicationSkill{},
		Summary: CommunicationSummary{
			Exceeded: []string{},
			Met:      []string{},
			Missed:   []string{"Manual evaluation required due to system failure"},
		},
	}
}

// FallbackFor maps a shape to its fallback value. The switch is exhaustive
// over the enum; the trailing nil is unreachable for valid shapes.
func FallbackFor(shape FallbackShape) any {
	switch shape {
	case FallbackShapeClassification:
		return FallbackClassification()
	case FallbackShapeScriptAdherence:
		return FallbackScriptAdherence()
	case FallbackShapeCompliance:
		return FallbackCompliance()
	case FallbackShapeCommunication:
		return FallbackCommunication()
	}
	return nil
}
