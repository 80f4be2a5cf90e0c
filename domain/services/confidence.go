package services

import "agentmemory/domain/core/valueobjects"

// strongContradictionThreshold is the confidence above which a new atom's
// contradiction against an existing memory is treated as "strong" rather
// than "weak".
const strongContradictionThreshold = 0.75

// Reinforce applies an asymptotic approach toward 1, used when a new atom is
// found to be a near-duplicate (corroborating observation) of an existing
// memory.
func Reinforce(confidence float64) float64 {
	return valueobjects.Clamp01(confidence + 0.05*(1-confidence))
}

// WeakContradiction applies a proportional pull toward 0, used when a
// contradicting atom's own confidence is at or below the strong threshold.
func WeakContradiction(confidence float64) float64 {
	return valueobjects.Clamp01(confidence - 0.10*confidence)
}

// StrongContradiction applies a steeper proportional pull toward 0, used
// when a contradicting atom's own confidence exceeds the strong threshold.
func StrongContradiction(confidence float64) float64 {
	return valueobjects.Clamp01(confidence - 0.30*confidence)
}

// IsStrongContradiction reports whether an atom's own confidence makes its
// contradiction of an existing memory "strong" rather than "weak".
func IsStrongContradiction(atomConfidence float64) bool {
	return atomConfidence > strongContradictionThreshold
}

// ApplyContradiction dispatches to WeakContradiction or StrongContradiction
// based on the contradicting atom's own confidence.
func ApplyContradiction(targetConfidence, atomConfidence float64) float64 {
	if IsStrongContradiction(atomConfidence) {
		return StrongContradiction(targetConfidence)
	}
	return WeakContradiction(targetConfidence)
}
