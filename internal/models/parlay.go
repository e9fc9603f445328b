package models

import "github.com/shopspring/decimal"

// Parlay is an ordered set of recommended legs combined into a single wager.
// It is a transient query result, never persisted.
type Parlay struct {
	Legs                []RecommendedLeg `json:"legs"`
	CombinedOdds        float64          `json:"combined_odds"`
	CombinedProbability float64          `json:"combined_probability"`
	LegCount            int              `json:"leg_count"`
	TargetOdds          float64          `json:"target_odds"`
}

// NewParlay builds a parlay from the given legs, computing combined odds as
// the product of member decimal odds (rounded to two places for display) and
// combined probability as the product of model probabilities.
func NewParlay(legs []RecommendedLeg, targetOdds float64) *Parlay {
	combined := decimal.NewFromInt(1)
	probability := 1.0
	for _, leg := range legs {
		combined = combined.Mul(decimal.NewFromFloat(leg.DecimalOdds))
		probability *= leg.ModelProbability
	}
	odds, _ := combined.Round(2).Float64()
	return &Parlay{
		Legs:                legs,
		CombinedOdds:        odds,
		CombinedProbability: probability,
		LegCount:            len(legs),
		TargetOdds:          targetOdds,
	}
}
