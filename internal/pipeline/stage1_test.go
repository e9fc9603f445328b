package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/valuation"
)

var testNow = time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

func scoredCandidate(odds, modelProb float64) models.ScoredCandidate {
	c := models.BetCandidate{
		Sport:          models.SportBasketball,
		MarketType:     models.MarketMoneyline,
		EventID:        fmt.Sprintf("evt-%.3f-%.3f", odds, modelProb),
		EventStartTime: testNow.Add(24 * time.Hour),
		HomeTeam:       "Home",
		AwayTeam:       "Away",
		Selection:      "Home",
		DecimalOdds:    odds,
	}
	return valuation.Score(c, modelProb)
}

func TestStage1FilterThresholds(t *testing.T) {
	s := DefaultSettings()

	tests := []struct {
		name     string
		odds     float64
		prob     float64
		survives bool
	}{
		// odds 1.15, p 0.80: edge = 0.80-0.8696 < 0.02 despite odds in range
		{"negative edge fails", 1.15, 0.80, false},
		// odds 1.20, p 0.82: implied 0.8333, edge 0.0467, ev -0.016
		{"all thresholds met", 1.20, 0.82, true},
		{"odds at lower boundary", 1.05, 0.98, true},
		{"odds at upper boundary", 1.25, 0.83, true},
		{"odds below window", 1.04, 0.99, false},
		{"odds above window", 1.26, 0.85, false},
		{"probability below floor", 1.20, 0.74, false},
		{"thin edge fails", 1.05, 0.97, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			survivors := Stage1Filter([]models.ScoredCandidate{scoredCandidate(tt.odds, tt.prob)}, testNow, s)
			if tt.survives {
				assert.Len(t, survivors, 1)
			} else {
				assert.Empty(t, survivors)
			}
		})
	}
}

func TestStage1FilterBoundaryValuesIncluded(t *testing.T) {
	s := DefaultSettings()

	// odds exactly 1.25, probability exactly 0.83: implied 0.8, edge 0.03,
	// ev 0.0375 - every threshold is met at or inside its boundary.
	c := scoredCandidate(1.25, 0.83)
	assert.GreaterOrEqual(t, c.Edge, s.MinEdge)
	survivors := Stage1Filter([]models.ScoredCandidate{c}, testNow, s)
	assert.Len(t, survivors, 1)
}

func TestStage1FilterRejectsOutOfWindowEvents(t *testing.T) {
	s := DefaultSettings()

	past := scoredCandidate(1.20, 0.85)
	past.EventStartTime = testNow.Add(-time.Hour)

	farAhead := scoredCandidate(1.20, 0.85)
	farAhead.EventStartTime = testNow.Add(8 * 24 * time.Hour)

	atHorizon := scoredCandidate(1.20, 0.85)
	atHorizon.EventStartTime = testNow.Add(7 * 24 * time.Hour)

	survivors := Stage1Filter([]models.ScoredCandidate{past, farAhead, atHorizon}, testNow, s)
	assert.Len(t, survivors, 1)
	assert.Equal(t, atHorizon.EventStartTime, survivors[0].EventStartTime)
}

// Tightening any threshold never increases the survivor count.
func TestStage1FilterMonotonic(t *testing.T) {
	base := DefaultSettings()

	pool := make([]models.ScoredCandidate, 0, 40)
	for i := 0; i < 40; i++ {
		odds := 1.04 + float64(i)*0.006
		prob := 0.72 + float64(i%10)*0.02
		pool = append(pool, scoredCandidate(odds, prob))
	}
	baseline := len(Stage1Filter(pool, testNow, base))

	tighter := []Settings{base, base, base, base, base}
	tighter[0].MinOdds = 1.10
	tighter[1].MaxOdds = 1.20
	tighter[2].MinModelProbability = 0.80
	tighter[3].MinEdge = 0.04
	tighter[4].MinExpectedValue = 0.0

	for i, s := range tighter {
		assert.LessOrEqual(t, len(Stage1Filter(pool, testNow, s)), baseline, "tightened setting %d", i)
	}
}
