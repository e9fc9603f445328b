// Package pipeline implements the two-stage scoring and selection pipeline
// that turns a raw candidate pool into a ranked shortlist of parlay legs.
package pipeline

import "fmt"

// Settings holds the pipeline policy constants. All thresholds and weights
// are configuration, never inline literals, so they can be retuned and
// tested independently of the scoring formula.
type Settings struct {
	// Stage-1 hard thresholds (closed intervals)
	MinOdds             float64 `mapstructure:"min_odds"`
	MaxOdds             float64 `mapstructure:"max_odds"`
	MinModelProbability float64 `mapstructure:"min_model_probability"`
	MinEdge             float64 `mapstructure:"min_edge"`
	MinExpectedValue    float64 `mapstructure:"min_expected_value"`

	// Stage-2 composite score
	LegCap            int     `mapstructure:"leg_cap"`
	WeightProbability float64 `mapstructure:"weight_probability"`
	WeightEV          float64 `mapstructure:"weight_ev"`
	WeightEdge        float64 `mapstructure:"weight_edge"`
	WeightConsistency float64 `mapstructure:"weight_consistency"`
	RivalryPenalty    float64 `mapstructure:"rivalry_penalty"`
}

// Composite-score term scales. These normalize each term to a comparable
// magnitude before weighting and are part of the score definition, not
// tunables.
const (
	evScale          = 20.0
	edgeScale        = 10.0
	consistencyScale = 100.0

	// Scores are reported on a 0-100 display scale.
	displayScale = 100.0
)

// DefaultSettings returns the production policy constants.
func DefaultSettings() Settings {
	return Settings{
		MinOdds:             1.05,
		MaxOdds:             1.25,
		MinModelProbability: 0.75,
		MinEdge:             0.02,
		MinExpectedValue:    -0.05,
		LegCap:              20,
		WeightProbability:   0.4,
		WeightEV:            0.3,
		WeightEdge:          0.2,
		WeightConsistency:   0.1,
		RivalryPenalty:      5.6,
	}
}

// Validate checks internal consistency of the settings.
func (s Settings) Validate() error {
	if s.MinOdds <= 1.0 || s.MaxOdds < s.MinOdds {
		return fmt.Errorf("odds window [%v, %v] is invalid", s.MinOdds, s.MaxOdds)
	}
	if s.LegCap < 1 {
		return fmt.Errorf("leg cap must be at least 1, got %d", s.LegCap)
	}
	weightSum := s.WeightProbability + s.WeightEV + s.WeightEdge + s.WeightConsistency
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("composite weights must sum to 1.0, got %v", weightSum)
	}
	if s.RivalryPenalty < 0 {
		return fmt.Errorf("rivalry penalty must be non-negative, got %v", s.RivalryPenalty)
	}
	return nil
}
