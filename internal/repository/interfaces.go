// Package repository provides data access for fetched candidate snapshots
// and pipeline run history.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/pipeline"
)

// CandidateRepository persists fetched candidate batches. Each fetch is a
// snapshot identified by its fetched_at timestamp; the pipeline always reads
// the most recent one.
type CandidateRepository interface {
	// InsertBatch stores one fetch batch.
	InsertBatch(ctx context.Context, candidates []models.BetCandidate) error

	// LatestSnapshot returns the most recent batch and its fetch time.
	LatestSnapshot(ctx context.Context) ([]models.BetCandidate, time.Time, error)

	// DeleteOlderThan removes candidates fetched before the cutoff and
	// returns the number of rows deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRepository records pipeline run outcomes for audit and tuning.
type RunRepository interface {
	// SaveRun stores one run's funnel stats and its recommended legs.
	SaveRun(ctx context.Context, stats pipeline.Stats, legs []models.RecommendedLeg) error
}
