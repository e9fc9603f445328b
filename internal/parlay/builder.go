// Package parlay searches ranked legs for a subset whose combined odds
// approximate a requested target under a leg-count constraint.
package parlay

import (
	"errors"
	"math"

	"github.com/yourusername/safe-legs/internal/models"
)

// Input validation errors. An infeasible search is not an error; Build
// returns nil for that.
var (
	ErrInvalidTargetOdds = errors.New("target odds must be greater than 1.0")
	ErrInvalidMaxLegs    = errors.New("max legs must be at least 1")
)

// Settings holds the builder policy constants.
type Settings struct {
	// CeilingFactor bounds the greedy running product at
	// target*CeilingFactor; a parlay overshooting the ceiling is rejected.
	CeilingFactor float64 `mapstructure:"ceiling_factor"`
	// MinFraction is the feasibility floor: no combination reaching at
	// least MinFraction*target means no parlay.
	MinFraction float64 `mapstructure:"min_fraction"`
	// TopK bounds the exhaustive fallback to the K best-scoring legs so the
	// worst case stays at (K choose maxLegs).
	TopK int `mapstructure:"top_k"`
}

// DefaultSettings returns the production builder constants.
func DefaultSettings() Settings {
	return Settings{
		CeilingFactor: 1.5,
		MinFraction:   0.90,
		TopK:          10,
	}
}

// Builder selects leg subsets. It holds only policy constants and is safe
// for concurrent use.
type Builder struct {
	settings Settings
}

// NewBuilder creates a builder with the given settings, falling back to
// defaults for unset values.
func NewBuilder(settings Settings) *Builder {
	if settings.CeilingFactor <= 1.0 {
		settings.CeilingFactor = DefaultSettings().CeilingFactor
	}
	if settings.MinFraction <= 0 || settings.MinFraction > 1 {
		settings.MinFraction = DefaultSettings().MinFraction
	}
	if settings.TopK < 2 {
		settings.TopK = DefaultSettings().TopK
	}
	return &Builder{settings: settings}
}

// candidate is a potential parlay during search.
type candidate struct {
	legs      []models.RecommendedLeg
	product   float64
	composite float64
}

// Build finds a subset of legs of size <= maxLegs whose combined odds are as
// close as possible to targetOdds. Solutions at or above the target beat
// solutions below it; among equally close solutions fewer legs win, then
// higher total composite score. Legs must arrive ordered by composite score
// descending; given identical input and parameters the result is identical.
//
// Returns nil when no combination reaches MinFraction*targetOdds within the
// leg budget.
func (b *Builder) Build(legs []models.RecommendedLeg, targetOdds float64, maxLegs int) (*models.Parlay, error) {
	if targetOdds <= 1.0 {
		return nil, ErrInvalidTargetOdds
	}
	if maxLegs < 1 {
		return nil, ErrInvalidMaxLegs
	}
	if len(legs) == 0 {
		return nil, nil
	}

	ceiling := targetOdds * b.settings.CeilingFactor
	floor := targetOdds * b.settings.MinFraction

	best := b.greedy(legs, targetOdds, maxLegs, ceiling, floor)

	// The greedy pass follows score order only; when it cannot reach the
	// floor, sweep combinations among the top legs for any feasible subset.
	if best == nil {
		best = b.exhaustive(legs, targetOdds, maxLegs, ceiling, floor)
	}

	if best == nil {
		return nil, nil
	}
	return models.NewParlay(best.legs, targetOdds), nil
}

// greedy adds the next highest-scoring eligible leg while the running
// product stays at or below the ceiling, stopping once the target is met.
func (b *Builder) greedy(legs []models.RecommendedLeg, targetOdds float64, maxLegs int, ceiling, floor float64) *candidate {
	var picked []models.RecommendedLeg
	product := 1.0
	composite := 0.0
	usedEvents := make(map[string]bool)
	usedSelections := make(map[string]bool)

	for _, leg := range legs {
		if len(picked) >= maxLegs {
			break
		}
		if usedEvents[eventKey(leg)] || usedSelections[selectionKey(leg)] {
			continue
		}
		next := product * leg.DecimalOdds
		if next > ceiling {
			continue
		}
		picked = append(picked, leg)
		product = next
		composite += leg.CompositeScore
		usedEvents[eventKey(leg)] = true
		usedSelections[selectionKey(leg)] = true

		if product >= targetOdds {
			break
		}
	}

	if len(picked) == 0 || product < floor {
		return nil
	}
	return &candidate{legs: picked, product: product, composite: composite}
}

// exhaustive sweeps combinations of size 2..maxLegs over the top-K legs and
// keeps the best feasible candidate under the preference order.
func (b *Builder) exhaustive(legs []models.RecommendedLeg, targetOdds float64, maxLegs int, ceiling, floor float64) *candidate {
	pool := legs
	if len(pool) > b.settings.TopK {
		pool = pool[:b.settings.TopK]
	}

	var best *candidate
	current := make([]models.RecommendedLeg, 0, maxLegs)

	var walk func(start int, product, composite float64)
	walk = func(start int, product, composite float64) {
		if len(current) >= 2 && product >= floor && product <= ceiling {
			trial := &candidate{
				legs:      append([]models.RecommendedLeg(nil), current...),
				product:   product,
				composite: composite,
			}
			if better(trial, best, targetOdds) {
				best = trial
			}
		}
		if len(current) >= maxLegs {
			return
		}
		for i := start; i < len(pool); i++ {
			leg := pool[i]
			if conflicts(current, leg) {
				continue
			}
			next := product * leg.DecimalOdds
			if next > ceiling {
				continue
			}
			current = append(current, leg)
			walk(i+1, next, composite+leg.CompositeScore)
			current = current[:len(current)-1]
		}
	}
	walk(0, 1.0, 0.0)

	return best
}

// better reports whether trial beats incumbent under the preference order:
// meeting the target first, then distance to target, then fewer legs, then
// higher total composite score.
func better(trial, incumbent *candidate, targetOdds float64) bool {
	if incumbent == nil {
		return true
	}
	trialMeets := trial.product >= targetOdds
	incumbentMeets := incumbent.product >= targetOdds
	if trialMeets != incumbentMeets {
		return trialMeets
	}
	trialDist := math.Abs(trial.product - targetOdds)
	incumbentDist := math.Abs(incumbent.product - targetOdds)
	if trialDist != incumbentDist {
		return trialDist < incumbentDist
	}
	if len(trial.legs) != len(incumbent.legs) {
		return len(trial.legs) < len(incumbent.legs)
	}
	return trial.composite > incumbent.composite
}

func conflicts(current []models.RecommendedLeg, leg models.RecommendedLeg) bool {
	for _, picked := range current {
		if eventKey(picked) == eventKey(leg) || selectionKey(picked) == selectionKey(leg) {
			return true
		}
	}
	return false
}

func eventKey(leg models.RecommendedLeg) string {
	if leg.EventID != "" {
		return leg.EventID
	}
	return leg.HomeTeam + "_vs_" + leg.AwayTeam
}

func selectionKey(leg models.RecommendedLeg) string {
	return eventKey(leg) + "|" + leg.Selection
}
