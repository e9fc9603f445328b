// Package valuation provides pure value-bet arithmetic: implied probability,
// edge and expected value. No I/O, no state.
package valuation

import "github.com/yourusername/safe-legs/internal/models"

// ImpliedProbability converts decimal odds to the market-implied win
// probability, 1/odds. Returns 0 for odds <= 0.
func ImpliedProbability(decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	return 1.0 / decimalOdds
}

// FairOdds converts a probability back to break-even decimal odds
func FairOdds(probability float64) float64 {
	if probability <= 0 {
		return 0
	}
	return 1.0 / probability
}

// ExpectedValue is the expected profit fraction per unit stake
func ExpectedValue(modelProbability, decimalOdds float64) float64 {
	return modelProbability*decimalOdds - 1.0
}

// Edge is model probability minus implied probability; positive edge signals
// value against the market price.
func Edge(modelProbability, decimalOdds float64) float64 {
	return modelProbability - ImpliedProbability(decimalOdds)
}

// Score attaches the full set of value metrics to a candidate. The metrics
// are always computed together from the same (probability, odds) pair so they
// can never drift apart.
func Score(candidate models.BetCandidate, modelProbability float64) models.ScoredCandidate {
	ev := ExpectedValue(modelProbability, candidate.DecimalOdds)
	return models.ScoredCandidate{
		BetCandidate:       candidate,
		ModelProbability:   modelProbability,
		ImpliedProbability: ImpliedProbability(candidate.DecimalOdds),
		Edge:               Edge(modelProbability, candidate.DecimalOdds),
		ExpectedValue:      ev,
		ConfidenceTier:     models.TierFor(modelProbability, ev),
	}
}
