package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/safe-legs/internal/models"
)

// Summary aggregates the current recommendation set for reporting.
type Summary struct {
	TotalCandidatesAnalyzed int                     `json:"total_candidates_analyzed"`
	RecommendedLegsCount    int                     `json:"recommended_legs_count"`
	SportsBreakdown         map[models.Sport]int    `json:"sports_breakdown"`
	AverageOdds             float64                 `json:"average_odds"`
	AverageModelProbability float64                 `json:"average_model_probability"`
	AverageExpectedValue    float64                 `json:"average_expected_value"`
	AverageCompositeScore   float64                 `json:"average_composite_score"`
	SampleFourLegOdds       float64                 `json:"sample_4_leg_parlay_odds"`
	RivalryMatchupsIncluded int                     `json:"rivalry_matchups_included"`
	SnapshotTime            time.Time               `json:"snapshot_time"`
	RecommendedLegs         []models.RecommendedLeg `json:"recommended_legs"`
}

// WeeklySummary runs the pipeline and aggregates the recommendation set:
// per-sport breakdown, averages, a sample four-leg combined price and the
// rivalry count.
func (e *Engine) WeeklySummary() Summary {
	legs, stats := e.run()

	summary := Summary{
		TotalCandidatesAnalyzed: stats.CandidatesIn,
		RecommendedLegsCount:    len(legs),
		SportsBreakdown:         make(map[models.Sport]int),
		SnapshotTime:            stats.SnapshotTime,
		RecommendedLegs:         legs,
	}

	if len(legs) == 0 {
		return summary
	}

	var sumOdds, sumProb, sumEV, sumComposite float64
	sample := decimal.NewFromInt(1)
	for i, leg := range legs {
		summary.SportsBreakdown[leg.Sport]++
		sumOdds += leg.DecimalOdds
		sumProb += leg.ModelProbability
		sumEV += leg.ExpectedValue
		sumComposite += leg.CompositeScore
		if leg.RivalryFlag {
			summary.RivalryMatchupsIncluded++
		}
		if i < 4 {
			sample = sample.Mul(decimal.NewFromFloat(leg.DecimalOdds))
		}
	}

	n := float64(len(legs))
	summary.AverageOdds = sumOdds / n
	summary.AverageModelProbability = sumProb / n
	summary.AverageExpectedValue = sumEV / n
	summary.AverageCompositeScore = sumComposite / n
	summary.SampleFourLegOdds, _ = sample.Round(2).Float64()

	return summary
}
