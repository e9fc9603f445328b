package pipeline

import (
	"sort"

	"github.com/yourusername/safe-legs/internal/models"
)

// Stage2Prune computes the composite score for each Stage-1 survivor, ranks
// the pool and truncates it to the leg cap. An empty survivor set yields an
// empty (non-nil error free) result.
func Stage2Prune(survivors []models.ScoredCandidate, s Settings) []models.RecommendedLeg {
	scored := make([]models.ScoredCandidate, 0, len(survivors))
	for _, c := range survivors {
		name, flagged := LookupRivalry(c.Sport, c.HomeTeam, c.AwayTeam)
		c.RivalryFlag = flagged
		c.RivalryName = name
		c.ConsistencyScore = consistencyScore(c)
		c.CompositeScore = compositeScore(c, s)
		scored = append(scored, c)
	}

	sortByRank(scored)

	// One leg per (event, selection, market, line), then at most one leg per
	// (event, selection) so the slate never carries the same pick across
	// several markets or lines. The higher-ranked occurrence wins.
	seen := make(map[string]bool, len(scored))
	usedSelections := make(map[string]bool, s.LegCap)
	legs := make([]models.RecommendedLeg, 0, s.LegCap)
	for _, c := range scored {
		key := c.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		selectionKey := c.EventID + "|" + c.Selection
		if usedSelections[selectionKey] {
			continue
		}
		usedSelections[selectionKey] = true

		legs = append(legs, models.RecommendedLeg{
			ScoredCandidate: c,
			Rank:            len(legs) + 1,
			Rationale:       buildRationale(c),
		})
		if len(legs) >= s.LegCap {
			break
		}
	}
	return legs
}

// compositeScore blends probability, EV, edge and consistency into a single
// ranking score on a 0-100 display scale, then applies the rivalry penalty.
// The penalty stays outside the blend so raw probabilities remain auditable.
func compositeScore(c models.ScoredCandidate, s Settings) float64 {
	base := c.ModelProbability*s.WeightProbability +
		c.ExpectedValue*evScale*s.WeightEV +
		c.Edge*edgeScale*s.WeightEdge +
		c.ConsistencyScore*consistencyScale*s.WeightConsistency

	score := base * displayScale
	if c.RivalryFlag {
		score -= s.RivalryPenalty
	}
	return score
}

// sortByRank orders candidates descending by adjusted composite score with
// deterministic tie-breaks: higher model probability, then higher odds (more
// value at equal confidence), then earlier start time, then event/selection
// identity as a final stable key.
func sortByRank(pool []models.ScoredCandidate) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if a.ModelProbability != b.ModelProbability {
			return a.ModelProbability > b.ModelProbability
		}
		if a.DecimalOdds != b.DecimalOdds {
			return a.DecimalOdds > b.DecimalOdds
		}
		if !a.EventStartTime.Equal(b.EventStartTime) {
			return a.EventStartTime.Before(b.EventStartTime)
		}
		return a.DedupKey() < b.DedupKey()
	})
}
