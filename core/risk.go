package core

// severityMultiplier weights a pattern's severity into the risk score.
var severityMultiplier = map[Severity]float64{
	SeverityLow:      1.2,
	SeverityMedium:   1.5,
	SeverityHigh:     2.0,
	SeverityCritical: 3.0,
}

// SeverityMultiplier returns the risk weighting for a severity.
// Unknown severities weight as low.
func SeverityMultiplier(s Severity) float64 {
	if m, ok := severityMultiplier[s]; ok {
		return m
	}
	return severityMultiplier[SeverityLow]
}

// FrequencyMultiplier scales risk with observed occurrence count:
// min(1 + occurrences/10, 3) when occurrences > 0, else 1.
func FrequencyMultiplier(occurrences int) float64 {
	if occurrences <= 0 {
		return 1
	}
	m := 1 + float64(occurrences)/10
	if m > 3 {
		return 3
	}
	return m
}

// ComputeRiskScore combines the event's baseline score, the pattern's
// severity, the accumulated match confidence and the occurrence
// frequency into a composite estimate, clamped to [0, 1].
func ComputeRiskScore(baseScore float64, patternSeverity Severity, confidence float64, occurrences int) float64 {
	if baseScore < 0 {
		baseScore = 0
	}
	score := baseScore * SeverityMultiplier(patternSeverity) * (1 + confidence) * FrequencyMultiplier(occurrences)
	if score > 1 {
		return 1
	}
	return score
}
