package pipeline

import "github.com/yourusername/safe-legs/internal/models"

// Context feature keys the consistency score reads when present.
const (
	featureConsistency = "consistency"
	featureStatMean    = "stat_mean_10"
	featureStatStddev  = "stat_stddev_10"
)

const maxConsistency = 0.95

// consistencyScore measures how stable the underlying statistic has been
// over the recent sample window, mapped to [0,1] where low variance is high.
//
// Preference order: a provider-computed consistency feature; otherwise the
// coefficient of variation of the stat over the last ten games; otherwise a
// deterministic imputation from the market price, where shorter favorites
// are assumed steadier.
func consistencyScore(c models.ScoredCandidate) float64 {
	if v, ok := c.ContextFeatures[featureConsistency]; ok && v >= 0 && v <= 1 {
		return v
	}

	mean, hasMean := c.ContextFeatures[featureStatMean]
	stddev, hasStddev := c.ContextFeatures[featureStatStddev]
	if hasMean && hasStddev && mean > 0 && stddev >= 0 {
		cv := stddev / mean
		if cv > 1 {
			cv = 1
		}
		score := 1 - cv
		if score > maxConsistency {
			return maxConsistency
		}
		return score
	}

	return imputedConsistency(c)
}

// imputedConsistency derives a consistency estimate from implied probability
// alone. Short favorites get a higher floor than the rest of the field.
func imputedConsistency(c models.ScoredCandidate) float64 {
	implied := c.ImpliedProbability
	var score float64
	if c.DecimalOdds <= 1.25 {
		score = 0.65 + implied*0.2
	} else {
		score = 0.4 + implied*0.3
	}
	if score > maxConsistency {
		return maxConsistency
	}
	return score
}
