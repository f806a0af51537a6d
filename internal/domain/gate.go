package domain

// Deep-dive gate. A call earns a stage-3 analysis either through a critical
// trigger (any compliance violation, or the classifier's explicit flag) or
// by accumulating enough severity points across issue categories.

// deepDiveThreshold is the severity score at which the gate fires.
const deepDiveThreshold = 3

// RequiresDeepDive decides whether the call warrants a deep-dive analysis.
// Compliance may be a fallback value; a fallback's synthetic violation
// deliberately forces the deep dive.
func RequiresDeepDive(classification *CallClassification, compliance *Compliance) bool {
	if compliance.HasViolations() || classification.RequiresDeepDive {
		return true
	}
	return DeepDiveSeverityScore(classification, compliance) >= deepDiveThreshold
}

// DeepDiveSeverityScore totals severity points across issue categories.
// Points accumulate as floats (coaching items are worth half a point each)
// and the sum is truncated to an integer only once, at the end. The
// weights are calibrated against production traffic; change them together
// or not at all.
func DeepDiveSeverityScore(classification *CallClassification, compliance *Compliance) int {
	var score float64

	// Red flags: 1 point each, capped at 3.
	redFlags := len(classification.RedFlags)
	score += minF(float64(redFlags), 3)

	// Coaching items: 0.5 points each, capped at 2.
	coaching := len(compliance.Summary.CoachingNeeded)
	score += minF(float64(coaching)*0.5, 2)

	// Low-adherence sections: 1 point each, capped at 2.
	lowAdherence := classification.LowAdherenceCount()
	score += minF(float64(lowAdherence), 2)

	// Outcome penalty. An unjustified incomplete is worse than a loss.
	switch {
	case classification.CallOutcome == CallOutcomeLost:
		score++
	case classification.CallOutcome == CallOutcomeIncomplete && !classification.EarlyTerminationJustified:
		score += 2
	}

	// Issues spread across two or more categories suggest something
	// systemic rather than a one-off slip.
	categories := 0
	if redFlags > 0 {
		categories++
	}
	if coaching > 0 {
		categories++
	}
	if lowAdherence > 0 {
		categories++
	}
	if categories >= 2 {
		score++
	}

	return int(score)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
