package estimator

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/valuation"
)

// HeuristicEstimator produces a calibrated probability from the market price
// plus small form and venue adjustments. It backs the pipeline when no model
// artifact is deployed, and serves as a mock-free default in tests.
type HeuristicEstimator struct {
	dq *logger.DataQualityLogger
}

// NewHeuristicEstimator creates the heuristic estimator. The logger may be
// nil in tests.
func NewHeuristicEstimator(log *logrus.Logger) *HeuristicEstimator {
	var dq *logger.DataQualityLogger
	if log != nil {
		dq = logger.NewDataQualityLogger(log)
	}
	return &HeuristicEstimator{dq: dq}
}

// Name returns the estimator identifier.
func (h *HeuristicEstimator) Name() string {
	return "heuristic_v1"
}

// Estimate anchors on implied probability and nudges it by win rate, recent
// form and home advantage. Shorter prices earn larger adjustments: a heavy
// favorite with a strong record is underpriced more often than a coin flip.
func (h *HeuristicEstimator) Estimate(candidate models.BetCandidate) float64 {
	metrics.EstimatorPredictionsTotal.Inc()

	if candidate.DecimalOdds <= 1.0 {
		metrics.EstimatorFallbacksTotal.Inc()
		if h.dq != nil {
			h.dq.LogEstimatorFallback(candidate.EventID, candidate.Selection, "invalid odds", FallbackProbability)
		}
		return FallbackProbability
	}

	implied := valuation.ImpliedProbability(candidate.DecimalOdds)
	features, _ := ExtractFeatures(candidate, h.dq)

	winRate := features[FeatureWinRate]
	recentForm := features[FeatureRecentForm]
	isHome := features[FeatureIsHome] > 0.5

	var adjustment float64
	switch {
	case implied >= 0.85:
		switch {
		case winRate >= 0.65:
			adjustment = 0.05
		case winRate >= 0.55:
			adjustment = 0.03
		default:
			adjustment = 0.01
		}
	case implied >= 0.75:
		if winRate >= 0.60 {
			adjustment = 0.04
		} else {
			adjustment = 0.02
		}
	case implied >= 0.60:
		adjustment = 0.03
	default:
		adjustment = 0.02
	}

	if isHome {
		adjustment += 0.02
	}
	if recentForm > 0.6 {
		adjustment += 0.02
	}

	return clampProbability(implied + adjustment)
}
