package pipeline

import (
	"time"

	"github.com/yourusername/safe-legs/internal/models"
)

// Stage1Filter applies the hard numerical thresholds to the scored pool,
// cutting hundreds of candidates down to tens before the more expensive
// Stage-2 scoring. All four thresholds are closed intervals: a candidate
// sitting exactly on a boundary survives.
//
// Events outside (now, now+7d] are rejected here even though upstream
// validation should already have excluded them.
func Stage1Filter(pool []models.ScoredCandidate, now time.Time, s Settings) []models.ScoredCandidate {
	horizon := now.Add(models.MaxEventDaysAhead * 24 * time.Hour)

	survivors := make([]models.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		if !c.EventStartTime.After(now) || c.EventStartTime.After(horizon) {
			continue
		}
		if c.DecimalOdds < s.MinOdds || c.DecimalOdds > s.MaxOdds {
			continue
		}
		if c.ModelProbability < s.MinModelProbability {
			continue
		}
		if c.Edge < s.MinEdge {
			continue
		}
		if c.ExpectedValue < s.MinExpectedValue {
			continue
		}
		survivors = append(survivors, c)
	}
	return survivors
}
