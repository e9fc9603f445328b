// Package service coordinates odds fetching with persistence and the
// scoring pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/pipeline"
	"github.com/yourusername/safe-legs/internal/provider"
	"github.com/yourusername/safe-legs/internal/repository"
)

// FetchService pulls upcoming-event odds from the provider, optionally
// persists the batch and swaps it into the engine's snapshot.
type FetchService struct {
	source     provider.OddsSource
	engine     *pipeline.Engine
	candidates repository.CandidateRepository // nil disables persistence
	runs       repository.RunRepository       // nil disables run recording
	sportKeys  []string
	window     time.Duration
	log        *logrus.Logger

	now func() time.Time
}

// NewFetchService creates a fetch service. A nil candidate repository
// disables persistence; fetched batches then live only in memory. A nil run
// repository disables run history recording.
func NewFetchService(source provider.OddsSource, engine *pipeline.Engine, candidates repository.CandidateRepository, runs repository.RunRepository, sportKeys []string, log *logrus.Logger) *FetchService {
	return &FetchService{
		source:     source,
		engine:     engine,
		candidates: candidates,
		runs:       runs,
		sportKeys:  sportKeys,
		window:     models.MaxEventDaysAhead * 24 * time.Hour,
		log:        log,
		now:        time.Now,
	}
}

// FetchUpcoming fetches odds for events inside the pipeline's event horizon
// and refreshes the engine snapshot. Persistence failures are logged but do
// not discard the in-memory snapshot.
func (s *FetchService) FetchUpcoming(ctx context.Context) (int, error) {
	started := s.now()
	from := started
	to := started.Add(s.window)

	candidates, err := s.source.FetchCandidates(ctx, s.sportKeys, from, to)
	if err != nil {
		return 0, fmt.Errorf("odds fetch failed: %w", err)
	}
	metrics.OddsFetchDuration.Observe(s.now().Sub(started).Seconds())

	fetchedAt := started.UTC()
	for i := range candidates {
		candidates[i].FetchedAt = fetchedAt
	}

	s.engine.Refresh(candidates, fetchedAt)

	if s.candidates != nil {
		if err := s.candidates.InsertBatch(ctx, candidates); err != nil {
			s.log.WithError(err).Error("Failed to persist candidate batch")
		}
	}

	if s.runs != nil {
		legs := s.engine.RecommendedLegs(0)
		if err := s.runs.SaveRun(ctx, s.engine.PipelineStats(), legs); err != nil {
			s.log.WithError(err).Error("Failed to record pipeline run")
		}
	}

	s.log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"from":       from,
		"to":         to,
	}).Info("Odds fetch complete")

	return len(candidates), nil
}

// RestoreSnapshot loads the most recent persisted batch into the engine.
// Used at startup so a restart does not wait for the next scheduled fetch.
func (s *FetchService) RestoreSnapshot(ctx context.Context) error {
	if s.candidates == nil {
		return nil
	}

	candidates, fetchedAt, err := s.candidates.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if len(candidates) == 0 {
		s.log.Info("No persisted snapshot to restore")
		return nil
	}

	s.engine.Refresh(candidates, fetchedAt)
	s.log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"fetched_at": fetchedAt,
	}).Info("Snapshot restored from storage")
	return nil
}

// PruneStale deletes persisted candidates older than the retention cutoff.
func (s *FetchService) PruneStale(ctx context.Context, retention time.Duration) error {
	if s.candidates == nil {
		return nil
	}

	deleted, err := s.candidates.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.log.WithField("deleted", deleted).Info("Pruned stale candidates")
	}
	return nil
}
