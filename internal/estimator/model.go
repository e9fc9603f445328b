package estimator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/models"
)

// TreeNode is one node of a regression tree. Leaves have Left == -1 and
// carry Value; internal nodes route on Feature <= Threshold.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single regression tree stored as a flat node array rooted at 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// ModelArtifact is the on-disk representation of a trained ensemble.
type ModelArtifact struct {
	Version      string  `json:"version"`
	FeatureCount int     `json:"feature_count"`
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// EnsembleEstimator scores candidates with a gradient-boosted tree ensemble
// trained offline. The artifact is loaded once and treated as read-only, so
// concurrent Estimate calls are safe.
type EnsembleEstimator struct {
	artifact *ModelArtifact
	log      *logrus.Logger
	dq       *logger.DataQualityLogger
}

// LoadEnsemble reads and validates a model artifact. A missing or corrupt
// artifact is a startup failure; callers decide whether to fall back to the
// heuristic estimator instead.
func LoadEnsemble(path string, log *logrus.Logger) (*EnsembleEstimator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	artifact := &ModelArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if err := validateArtifact(artifact); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}

	log.WithFields(logrus.Fields{
		"version": artifact.Version,
		"trees":   len(artifact.Trees),
	}).Info("Model artifact loaded")

	return &EnsembleEstimator{
		artifact: artifact,
		log:      log,
		dq:       logger.NewDataQualityLogger(log),
	}, nil
}

// Name returns the estimator identifier including the artifact version.
func (e *EnsembleEstimator) Name() string {
	return "gbt_ensemble_" + e.artifact.Version
}

// Estimate scores a candidate's win probability. Missing features are imputed
// deterministically; a structurally unusable candidate yields the
// conservative fallback rather than an error.
func (e *EnsembleEstimator) Estimate(candidate models.BetCandidate) float64 {
	metrics.EstimatorPredictionsTotal.Inc()

	if candidate.DecimalOdds <= 1.0 {
		metrics.EstimatorFallbacksTotal.Inc()
		e.dq.LogEstimatorFallback(candidate.EventID, candidate.Selection, "invalid odds", FallbackProbability)
		return FallbackProbability
	}

	features, _ := ExtractFeatures(candidate, e.dq)

	score := e.artifact.BaseScore
	for _, tree := range e.artifact.Trees {
		score += e.artifact.LearningRate * walkTree(tree, features)
	}

	return clampProbability(sigmoid(score))
}

func walkTree(tree Tree, features [FeatureCount]float64) float64 {
	idx := 0
	for {
		node := tree.Nodes[idx]
		if node.Left < 0 {
			return node.Value
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func validateArtifact(artifact *ModelArtifact) error {
	if artifact.FeatureCount != FeatureCount {
		return fmt.Errorf("artifact expects %d features, estimator provides %d", artifact.FeatureCount, FeatureCount)
	}
	if len(artifact.Trees) == 0 {
		return fmt.Errorf("artifact contains no trees")
	}
	if artifact.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", artifact.LearningRate)
	}
	for i, tree := range artifact.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", i)
		}
		for j, node := range tree.Nodes {
			if node.Left < 0 {
				continue
			}
			if node.Feature < 0 || node.Feature >= FeatureCount {
				return fmt.Errorf("tree %d node %d references unknown feature %d", i, j, node.Feature)
			}
			if node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has out-of-range children", i, j)
			}
			// Children must come after their parent in the node array so
			// every walk terminates.
			if node.Left <= j || node.Right <= j {
				return fmt.Errorf("tree %d node %d has back-referencing children", i, j)
			}
		}
	}
	return nil
}
