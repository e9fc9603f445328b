// Package estimator provides calibrated win-probability estimation for bet
// candidates. The production estimator walks a gradient-boosted tree ensemble
// loaded once at process start; a heuristic estimator stands in when no
// artifact is available. Both are deterministic and safe for concurrent use.
package estimator

import "github.com/yourusername/safe-legs/internal/models"

// FallbackProbability is the conservative estimate returned when required
// features are missing or out of range. Estimation fails closed, never fatal.
const FallbackProbability = 0.5

// Estimator scores a candidate's win probability in [0,1]. Implementations
// must be deterministic for identical inputs and must not mutate shared state
// per call; the pipeline invokes Estimate concurrently.
type Estimator interface {
	Estimate(candidate models.BetCandidate) float64
	Name() string
}

func clampProbability(p float64) float64 {
	// Calibrated output never claims certainty either way.
	if p < 0.02 {
		return 0.02
	}
	if p > 0.98 {
		return 0.98
	}
	return p
}
