package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safe-legs/internal/models"
)

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.MinOdds = 1.0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.MaxOdds = 1.04
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.LegCap = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.WeightProbability = 0.5
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.RivalryPenalty = -1
	assert.Error(t, s.Validate())
}

func TestWeeklySummary(t *testing.T) {
	e := newTestEngine(t, &fixedEstimator{defaultProb: 0.88})

	c0 := poolCandidate(0, 1.20)
	c1 := poolCandidate(1, 1.22)
	c2 := poolCandidate(2, 1.18)
	c2.Sport = models.SportAmericanFootball
	c2.MarketType = models.MarketSpread
	e.Refresh([]models.BetCandidate{c0, c1, c2}, testNow.Add(-time.Minute))

	summary := e.WeeklySummary()

	assert.Equal(t, 3, summary.TotalCandidatesAnalyzed)
	assert.Equal(t, 3, summary.RecommendedLegsCount)
	assert.Equal(t, 2, summary.SportsBreakdown[models.SportBasketball])
	assert.Equal(t, 1, summary.SportsBreakdown[models.SportAmericanFootball])
	assert.InDelta(t, 1.20, summary.AverageOdds, 1e-9)
	assert.InDelta(t, 0.88, summary.AverageModelProbability, 1e-9)
	// All three legs fold into the sample price: 1.22 * 1.20 * 1.18 = 1.73.
	assert.InDelta(t, 1.73, summary.SampleFourLegOdds, 1e-9)
	assert.Zero(t, summary.RivalryMatchupsIncluded)
	require.Len(t, summary.RecommendedLegs, 3)
}

func TestWeeklySummaryEmptyPool(t *testing.T) {
	e := newTestEngine(t, &fixedEstimator{defaultProb: 0.88})
	summary := e.WeeklySummary()
	assert.Zero(t, summary.RecommendedLegsCount)
	assert.Zero(t, summary.AverageOdds)
	assert.Empty(t, summary.RecommendedLegs)
}
