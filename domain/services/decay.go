package services

import (
	"math"
	"time"

	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"
)

// dayHours is the unit used to express elapsed time in the decay exponent.
const dayHours = 24 * time.Hour

// decayRates gives the per-layer exponential decay rate, in units of
// per-day, applied by Decay.
var decayRates = map[entities.Layer]float64{
	entities.LayerWorking:  0.05,
	entities.LayerEpisodic: 0.015,
	entities.LayerSemantic: 0.003,
	entities.LayerArchival: 0.001,
}

// RateForLayer returns the decay rate configured for a layer, or the
// episodic rate if the layer is unrecognized.
func RateForLayer(layer entities.Layer) float64 {
	if rate, ok := decayRates[layer]; ok {
		return rate
	}
	return decayRates[entities.LayerEpisodic]
}

// Decay computes the new strength for a memory given its current strength,
// the time it was last reinforced, its layer, and the current time. It is a
// pure function: no I/O, no mutation of its arguments.
func Decay(strength float64, lastReinforcedAt time.Time, layer entities.Layer, now time.Time) float64 {
	elapsedDays := now.Sub(lastReinforcedAt).Hours() / dayHours.Hours()
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	rate := RateForLayer(layer)
	decayed := strength * math.Exp(-rate*elapsedDays)
	return valueobjects.Clamp01(decayed)
}

// IsArchivalCandidate reports whether a strength value falls in the band
// that marks an episodic memory eligible for promotion to the archival
// layer: 0.10 <= s < 0.25.
func IsArchivalCandidate(strength float64) bool {
	return strength >= 0.10 && strength < 0.25
}

// IsExpirationCandidate reports whether a strength value is low enough that
// the memory is a candidate for deletion: s < 0.10.
func IsExpirationCandidate(strength float64) bool {
	return strength < 0.10
}
