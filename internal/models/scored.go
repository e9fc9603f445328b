package models

// ConfidenceTier buckets a scored candidate by model probability and EV
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// Tier thresholds. A candidate is high confidence when both the probability
// and EV floors hold; medium when the weaker pair holds; low otherwise.
const (
	HighTierMinProbability   = 0.85
	HighTierMinEV            = 0.05
	MediumTierMinProbability = 0.75
	MediumTierMinEV          = 0.02
)

// TierFor derives the confidence tier from model probability and EV
func TierFor(modelProbability, expectedValue float64) ConfidenceTier {
	switch {
	case modelProbability >= HighTierMinProbability && expectedValue >= HighTierMinEV:
		return ConfidenceHigh
	case modelProbability >= MediumTierMinProbability && expectedValue >= MediumTierMinEV:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ScoredCandidate is a BetCandidate with analytics attached by the value
// calculator and, for Stage-2 survivors, the deep pruner. Derived fields are
// append-only; DecimalOdds and ContextFeatures are never altered.
type ScoredCandidate struct {
	BetCandidate

	ModelProbability   float64        `json:"model_probability"`
	ImpliedProbability float64        `json:"implied_probability"`
	Edge               float64        `json:"edge"`
	ExpectedValue      float64        `json:"expected_value"`
	ConfidenceTier     ConfidenceTier `json:"confidence_tier"`

	// Attached by Stage 2 only
	RivalryFlag      bool    `json:"rivalry_flag"`
	RivalryName      string  `json:"rivalry_name,omitempty"`
	ConsistencyScore float64 `json:"consistency_score"`
	CompositeScore   float64 `json:"composite_score"`
}

// RecommendedLeg is a ScoredCandidate that survived both filter stages,
// with its 1-based rank and a rationale derived only from its own numbers.
type RecommendedLeg struct {
	ScoredCandidate

	Rank      int    `json:"rank"`
	Rationale string `json:"rationale"`
}
