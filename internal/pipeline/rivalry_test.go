package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/safe-legs/internal/models"
)

func TestLookupRivalry(t *testing.T) {
	name, ok := LookupRivalry(models.SportBasketball, "Los Angeles Lakers", "Boston Celtics")
	assert.True(t, ok)
	assert.Equal(t, "Historic NBA Rivalry", name)

	// Order-insensitive.
	_, ok = LookupRivalry(models.SportBasketball, "Boston Celtics", "Los Angeles Lakers")
	assert.True(t, ok)

	// Provider naming variants still match.
	_, ok = LookupRivalry(models.SportBasketball, "Lakers", "Celtics")
	assert.True(t, ok)

	_, ok = LookupRivalry(models.SportBasketball, "Miami Heat", "New York Knicks")
	assert.False(t, ok)

	// Rivalries never cross sports.
	_, ok = LookupRivalry(models.SportRugbyLeague, "Los Angeles Lakers", "Boston Celtics")
	assert.False(t, ok)

	_, ok = LookupRivalry(models.SportMMA, "Fighter A", "Fighter B")
	assert.False(t, ok)

	_, ok = LookupRivalry(models.SportBasketball, "", "Boston Celtics")
	assert.False(t, ok)
}

func TestConsistencyScore(t *testing.T) {
	base := scoredCandidate(1.20, 0.85)

	t.Run("provider feature wins", func(t *testing.T) {
		c := base
		c.ContextFeatures = map[string]float64{featureConsistency: 0.72}
		assert.InDelta(t, 0.72, consistencyScore(c), 1e-9)
	})

	t.Run("coefficient of variation", func(t *testing.T) {
		c := base
		c.ContextFeatures = map[string]float64{
			featureStatMean:   20.0,
			featureStatStddev: 4.0,
		}
		// cv = 0.2 -> score 0.8
		assert.InDelta(t, 0.8, consistencyScore(c), 1e-9)
	})

	t.Run("cv score capped", func(t *testing.T) {
		c := base
		c.ContextFeatures = map[string]float64{
			featureStatMean:   20.0,
			featureStatStddev: 0.1,
		}
		assert.InDelta(t, maxConsistency, consistencyScore(c), 1e-9)
	})

	t.Run("imputed for short favorites", func(t *testing.T) {
		c := base // odds 1.20, implied 0.8333
		want := 0.65 + c.ImpliedProbability*0.2
		assert.InDelta(t, want, consistencyScore(c), 1e-9)
	})

	t.Run("imputed for longer odds", func(t *testing.T) {
		c := scoredCandidate(1.40, 0.75)
		want := 0.4 + c.ImpliedProbability*0.3
		assert.InDelta(t, want, consistencyScore(c), 1e-9)
	})
}
