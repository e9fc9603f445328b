package estimator

import (
	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/valuation"
)

// Feature vector layout. Order is part of the model artifact contract.
const (
	FeatureWinRate = iota
	FeatureRecentForm
	FeatureIsFavorite
	FeatureIsHome
	FeatureRankingDiff
	FeatureImpliedProbability
	FeatureCount
)

// featureSpec defines a feature's source key, its valid range, and the
// deterministic value imputed when the source is missing or out of range.
type featureSpec struct {
	key      string
	min, max float64
	fallback float64
	scale    float64
}

var featureSpecs = [FeatureCount]featureSpec{
	FeatureWinRate:            {key: "win_rate", min: 0, max: 1, fallback: 0.5, scale: 1},
	FeatureRecentForm:         {key: "recent_form", min: 0, max: 1, fallback: 0.5, scale: 1},
	FeatureIsFavorite:         {key: "is_favorite", min: 0, max: 1, fallback: 0, scale: 1},
	FeatureIsHome:             {key: "is_home", min: 0, max: 1, fallback: 0, scale: 1},
	FeatureRankingDiff:        {key: "ranking_diff", min: -100, max: 100, fallback: 0, scale: 0.01},
	FeatureImpliedProbability: {key: "implied_prob", min: 0, max: 1, fallback: 0.5, scale: 1},
}

// ExtractFeatures builds the model input vector from a candidate's context
// features. Missing or out-of-range values are imputed deterministically and
// reported as data-quality events; extraction itself never fails.
func ExtractFeatures(candidate models.BetCandidate, dq *logger.DataQualityLogger) ([FeatureCount]float64, bool) {
	var vector [FeatureCount]float64
	imputed := false

	for i, spec := range featureSpecs {
		// Implied probability is always derivable from the quoted odds;
		// the market price wins over a provider-supplied copy.
		if i == FeatureImpliedProbability && candidate.DecimalOdds > 1.0 {
			vector[i] = valuation.ImpliedProbability(candidate.DecimalOdds)
			continue
		}

		raw, ok := candidate.ContextFeatures[spec.key]
		if !ok || raw < spec.min || raw > spec.max {
			raw = spec.fallback
			imputed = true
			if dq != nil {
				dq.LogFeatureImputed(candidate.EventID, candidate.Selection, spec.key, spec.fallback)
			}
		}
		vector[i] = raw * spec.scale
	}

	return vector, imputed
}
