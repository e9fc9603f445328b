package estimator

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safe-legs/internal/models"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func candidateWith(odds float64, features map[string]float64) models.BetCandidate {
	return models.BetCandidate{
		Sport:           models.SportBasketball,
		MarketType:      models.MarketMoneyline,
		EventID:         "evt-1",
		Selection:       "Boston Celtics",
		DecimalOdds:     odds,
		ContextFeatures: features,
	}
}

func TestHeuristicEstimatorDeterministic(t *testing.T) {
	est := NewHeuristicEstimator(nil)
	c := candidateWith(1.15, map[string]float64{
		"win_rate":    0.70,
		"recent_form": 0.65,
		"is_home":     1,
	})

	first := est.Estimate(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, est.Estimate(c))
	}
}

func TestHeuristicEstimatorInRange(t *testing.T) {
	est := NewHeuristicEstimator(nil)

	for _, odds := range []float64{1.01, 1.05, 1.15, 1.25, 2.0, 8.0} {
		p := est.Estimate(candidateWith(odds, nil))
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestHeuristicEstimatorFavoriteAdjustments(t *testing.T) {
	est := NewHeuristicEstimator(nil)

	strong := est.Estimate(candidateWith(1.10, map[string]float64{"win_rate": 0.70}))
	weak := est.Estimate(candidateWith(1.10, map[string]float64{"win_rate": 0.40}))
	assert.Greater(t, strong, weak)

	home := est.Estimate(candidateWith(1.20, map[string]float64{"win_rate": 0.62, "is_home": 1}))
	away := est.Estimate(candidateWith(1.20, map[string]float64{"win_rate": 0.62, "is_home": 0}))
	assert.InDelta(t, 0.02, home-away, 1e-9)
}

func TestHeuristicEstimatorFailsClosedOnBadOdds(t *testing.T) {
	est := NewHeuristicEstimator(nil)
	assert.Equal(t, FallbackProbability, est.Estimate(candidateWith(1.0, nil)))
	assert.Equal(t, FallbackProbability, est.Estimate(candidateWith(-2.0, nil)))
}

func TestExtractFeaturesImputesMissing(t *testing.T) {
	c := candidateWith(1.20, nil)
	vector, imputed := ExtractFeatures(c, nil)

	assert.True(t, imputed)
	assert.Equal(t, 0.5, vector[FeatureWinRate])
	assert.Equal(t, 0.5, vector[FeatureRecentForm])
	assert.Equal(t, 0.0, vector[FeatureIsHome])
	assert.InDelta(t, 1.0/1.20, vector[FeatureImpliedProbability], 1e-12)
}

func TestExtractFeaturesRejectsOutOfRange(t *testing.T) {
	c := candidateWith(1.20, map[string]float64{
		"win_rate":     1.7, // out of range, must be imputed
		"ranking_diff": -20,
	})
	vector, imputed := ExtractFeatures(c, nil)

	assert.True(t, imputed)
	assert.Equal(t, 0.5, vector[FeatureWinRate])
	assert.InDelta(t, -0.20, vector[FeatureRankingDiff], 1e-12)
}

// testArtifact builds a two-tree ensemble that splits on implied probability
// and win rate.
func testArtifact() *ModelArtifact {
	return &ModelArtifact{
		Version:      "test",
		FeatureCount: FeatureCount,
		BaseScore:    1.0,
		LearningRate: 0.5,
		Trees: []Tree{
			{Nodes: []TreeNode{
				{Feature: FeatureImpliedProbability, Threshold: 0.80, Left: 1, Right: 2},
				{Left: -1, Value: -0.4},
				{Left: -1, Value: 0.8},
			}},
			{Nodes: []TreeNode{
				{Feature: FeatureWinRate, Threshold: 0.60, Left: 1, Right: 2},
				{Left: -1, Value: -0.2},
				{Left: -1, Value: 0.4},
			}},
		},
	}
}

func writeArtifact(t *testing.T, artifact *ModelArtifact) string {
	t.Helper()
	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadEnsembleAndEstimate(t *testing.T) {
	log := discardLogger()
	path := writeArtifact(t, testArtifact())

	est, err := LoadEnsemble(path, log)
	require.NoError(t, err)
	assert.Equal(t, "gbt_ensemble_test", est.Name())

	// Short favorite with strong form routes to the positive leaves:
	// sigmoid(1.0 + 0.5*0.8 + 0.5*0.4) = sigmoid(1.6)
	strong := est.Estimate(candidateWith(1.15, map[string]float64{"win_rate": 0.70}))
	assert.InDelta(t, 0.832, strong, 0.001)

	// Longshot with weak form routes negative: sigmoid(1.0 - 0.2 - 0.1)
	weak := est.Estimate(candidateWith(2.50, map[string]float64{"win_rate": 0.40}))
	assert.InDelta(t, 0.668, weak, 0.001)

	assert.Greater(t, strong, weak)
}

func TestLoadEnsembleDeterministic(t *testing.T) {
	path := writeArtifact(t, testArtifact())
	est, err := LoadEnsemble(path, discardLogger())
	require.NoError(t, err)

	c := candidateWith(1.18, map[string]float64{"win_rate": 0.66, "recent_form": 0.6})
	first := est.Estimate(c)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, est.Estimate(c))
	}
}

func TestLoadEnsembleRejectsBadArtifacts(t *testing.T) {
	log := discardLogger()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadEnsemble(filepath.Join(t.TempDir(), "missing.json"), log)
		assert.Error(t, err)
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		artifact := testArtifact()
		artifact.FeatureCount = 99
		_, err := LoadEnsemble(writeArtifact(t, artifact), log)
		assert.Error(t, err)
	})

	t.Run("no trees", func(t *testing.T) {
		artifact := testArtifact()
		artifact.Trees = nil
		_, err := LoadEnsemble(writeArtifact(t, artifact), log)
		assert.Error(t, err)
	})

	t.Run("out of range child", func(t *testing.T) {
		artifact := testArtifact()
		artifact.Trees[0].Nodes[0].Right = 42
		_, err := LoadEnsemble(writeArtifact(t, artifact), log)
		assert.Error(t, err)
	})

	t.Run("back-referencing child", func(t *testing.T) {
		// A child pointing at an earlier node would make the walk loop.
		artifact := testArtifact()
		artifact.Trees[0].Nodes = []TreeNode{
			{Feature: FeatureImpliedProbability, Threshold: 0.80, Left: 1, Right: 2},
			{Feature: FeatureWinRate, Threshold: 0.60, Left: 0, Right: 2},
			{Left: -1, Value: 0.8},
		}
		_, err := LoadEnsemble(writeArtifact(t, artifact), log)
		assert.Error(t, err)
	})

	t.Run("self-referencing child", func(t *testing.T) {
		artifact := testArtifact()
		artifact.Trees[0].Nodes[0].Left = 0
		_, err := LoadEnsemble(writeArtifact(t, artifact), log)
		assert.Error(t, err)
	})
}

func TestEnsembleEstimatorFailsClosedOnBadOdds(t *testing.T) {
	est, err := LoadEnsemble(writeArtifact(t, testArtifact()), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, FallbackProbability, est.Estimate(candidateWith(0.9, nil)))
}
