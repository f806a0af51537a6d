package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// Scoring weights. The overall score starts at 100 and moves by fixed
// amounts per issue; only exceeded communication skills add points back.
const (
	baseScore       = 100
	minOverallScore = 1
	maxOverallScore = 100

	violationPenalty    = 15
	coachingPenalty     = 5
	missedSkillPenalty  = 3
	exceededSkillBonus  = 2
	criticalMissPenalty = 10
)

// Summary caps. Per-source caps bound each contributor; the final caps
// truncate the concatenations so the digest stays readable.
const (
	maxCriticalIssues   = 3
	maxStrengths        = 3
	maxImprovements     = 4
	maxCoachingItems    = 3
	maxMissedSkills     = 3
	maxMissesPerSection = 2
)

// CalculateOverallScore reduces an evaluation to a single 1-100 score.
// Identical inputs always produce identical scores.
func CalculateOverallScore(result *EvaluationResult) int {
	score := baseScore

	score -= len(result.Compliance.Summary.Violations) * violationPenalty
	score -= len(result.Compliance.Summary.CoachingNeeded) * coachingPenalty

	score -= len(result.Communication.Summary.Missed) * missedSkillPenalty
	score += len(result.Communication.Summary.Exceeded) * exceededSkillBonus

	score -= result.ScriptDeviation.CriticalMissCount() * criticalMissPenalty

	if result.DeepDive != nil {
		for _, finding := range result.DeepDive.Findings {
			score -= findingPenalty(finding.Severity)
		}
	}

	return clampScore(score)
}

func findingPenalty(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return 20
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	}
	return 0
}

func clampScore(score int) int {
	if score < minOverallScore {
		return minOverallScore
	}
	if score > maxOverallScore {
		return maxOverallScore
	}
	return score
}

// GenerateSummary distills an evaluation into capped lists of critical
// issues, strengths, and coaching areas. Sections are visited in sorted
// key order so the output is deterministic.
func GenerateSummary(result *EvaluationResult) EvaluationSummary {
	var critical, strengths, improvements []string

	critical = append(critical, result.Compliance.Summary.Violations...)
	critical = append(critical, result.Classification.RedFlags...)

	strengths = append(strengths, firstN(result.Communication.Summary.Exceeded, maxStrengths)...)

	improvements = append(improvements, firstN(result.Compliance.Summary.CoachingNeeded, maxCoachingItems)...)
	improvements = append(improvements, firstN(result.Communication.Summary.Missed, maxMissedSkills)...)

	for _, section := range sortedSectionKeys(result.ScriptDeviation.Sections) {
		misses := result.ScriptDeviation.Sections[section].CriticalMisses
		for _, miss := range firstN(misses, maxMissesPerSection) {
			improvements = append(improvements, fmt.Sprintf("Section %s: %s", section, miss))
		}
	}

	if result.DeepDive != nil {
		for _, finding := range result.DeepDive.Findings {
			switch finding.Severity {
			case SeverityCritical, SeverityHigh:
				critical = append(critical, finding.Issue)
			default:
				improvements = append(improvements, finding.Issue)
			}
		}
	}

	return EvaluationSummary{
		Strengths:           firstN(strengths, maxStrengths),
		AreasForImprovement: firstN(improvements, maxImprovements),
		CriticalIssues:      firstN(critical, maxCriticalIssues),
	}
}

// sortedSectionKeys orders sections for the summary: numeric ids in
// script order, then any non-numeric ids in string order. Plain string
// sort would put section "10" before "2".
func sortedSectionKeys(sections map[string]SectionEvaluation) []string {
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil || bErr == nil:
			return aErr == nil
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// firstN returns at most n leading elements as a fresh slice. Always
// non-nil so summaries serialize as [] rather than null.
func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
