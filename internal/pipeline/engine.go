package pipeline

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/estimator"
	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/valuation"
)

// Snapshot is an immutable candidate pool read at pipeline start. Refreshes
// swap the whole snapshot atomically so a running pipeline never observes a
// partial pool.
type Snapshot struct {
	Candidates []models.BetCandidate
	FetchedAt  time.Time
}

// Stats reports the funnel counts of the most recent pipeline run.
type Stats struct {
	CandidatesIn    int       `json:"candidates_in"`
	SurvivorsStage1 int       `json:"survivors_stage1"`
	FinalLegsCount  int       `json:"final_legs_count"`
	SnapshotTime    time.Time `json:"snapshot_time"`
	LastRunAt       time.Time `json:"last_run_at"`
}

// Engine wires the estimator, value calculator, two-stage filter and parlay
// builder over the current candidate-pool snapshot. Every run reads one
// consistent snapshot reference and never mutates it, so concurrent runs are
// independent.
type Engine struct {
	estimator estimator.Estimator
	builder   *parlay.Builder
	settings  Settings
	log       *logrus.Logger
	dq        *logger.DataQualityLogger

	snapshot  atomic.Pointer[Snapshot]
	lastStats atomic.Pointer[Stats]

	// now is replaceable for deterministic tests
	now func() time.Time
}

// NewEngine creates a pipeline engine. The estimator must already hold its
// loaded model artifact; the engine treats it as read-only shared state.
func NewEngine(est estimator.Estimator, builder *parlay.Builder, settings Settings, log *logrus.Logger) *Engine {
	e := &Engine{
		estimator: est,
		builder:   builder,
		settings:  settings,
		log:       log,
		dq:        logger.NewDataQualityLogger(log),
		now:       time.Now,
	}
	e.snapshot.Store(&Snapshot{})
	e.lastStats.Store(&Stats{})
	return e
}

// Refresh replaces the candidate-pool snapshot. Called by the fetch
// subsystem; in-flight pipeline runs keep the snapshot they started with.
func (e *Engine) Refresh(candidates []models.BetCandidate, fetchedAt time.Time) {
	e.snapshot.Store(&Snapshot{Candidates: candidates, FetchedAt: fetchedAt})
	metrics.PoolCandidates.Set(float64(len(candidates)))
	e.log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"fetched_at": fetchedAt,
	}).Info("Candidate pool snapshot refreshed")
}

// RecommendedLegs runs the full pipeline against the current snapshot and
// returns at most limit legs (capped at the configured leg cap).
func (e *Engine) RecommendedLegs(limit int) []models.RecommendedLeg {
	legs, _ := e.run()
	if limit > 0 && limit < len(legs) {
		legs = legs[:limit]
	}
	return legs
}

// ValueBets scores the current snapshot and returns candidates with a
// positive edge, ordered by expected value descending. A zero-value sport
// returns all sports. This is the pre-Stage-1 view of the pool.
func (e *Engine) ValueBets(sport models.Sport, limit int) []models.ScoredCandidate {
	scored, _ := e.scorePool(e.snapshot.Load())

	bets := make([]models.ScoredCandidate, 0, len(scored))
	seen := make(map[string]bool)
	for _, c := range scored {
		if sport != "" && c.Sport != sport {
			continue
		}
		if c.Edge <= 0 {
			continue
		}
		if key := c.DedupKey(); !seen[key] {
			seen[key] = true
			bets = append(bets, c)
		}
	}

	sort.SliceStable(bets, func(i, j int) bool {
		if bets[i].ExpectedValue != bets[j].ExpectedValue {
			return bets[i].ExpectedValue > bets[j].ExpectedValue
		}
		return bets[i].DedupKey() < bets[j].DedupKey()
	})

	if limit > 0 && limit < len(bets) {
		bets = bets[:limit]
	}
	return bets
}

// BuildParlay runs the pipeline and searches the resulting legs for a subset
// approximating targetOdds. Returns nil when no feasible parlay exists.
func (e *Engine) BuildParlay(targetOdds float64, maxLegs int) (*models.Parlay, error) {
	legs, _ := e.run()

	start := e.now()
	built, err := e.builder.Build(legs, targetOdds, maxLegs)
	elapsed := e.now().Sub(start).Seconds()

	switch {
	case err != nil:
		metrics.RecordParlayRequest("invalid", elapsed)
	case built == nil:
		metrics.RecordParlayRequest("infeasible", elapsed)
	default:
		metrics.RecordParlayRequest("built", elapsed)
	}
	return built, err
}

// Settings returns the policy constants the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

// SnapshotTime returns the fetch time of the snapshot currently served.
// Zero when no snapshot has been loaded yet.
func (e *Engine) SnapshotTime() time.Time {
	return e.snapshot.Load().FetchedAt
}

// PipelineStats returns the funnel counts of the most recent run.
func (e *Engine) PipelineStats() Stats {
	return *e.lastStats.Load()
}

// run executes validate -> estimate -> value -> Stage 1 -> Stage 2 against
// one consistent snapshot and records the funnel stats.
func (e *Engine) run() ([]models.RecommendedLeg, Stats) {
	snapshot := e.snapshot.Load()
	started := e.now()

	scored, candidatesIn := e.scorePool(snapshot)
	survivors := Stage1Filter(scored, started, e.settings)
	legs := Stage2Prune(survivors, e.settings)

	stats := Stats{
		CandidatesIn:    candidatesIn,
		SurvivorsStage1: len(survivors),
		FinalLegsCount:  len(legs),
		SnapshotTime:    snapshot.FetchedAt,
		LastRunAt:       started,
	}
	e.lastStats.Store(&stats)

	elapsed := e.now().Sub(started).Seconds()
	metrics.RecordPipelineRun(elapsed, candidatesIn, len(survivors), len(legs))
	if !snapshot.FetchedAt.IsZero() {
		metrics.SnapshotAgeSeconds.Set(started.Sub(snapshot.FetchedAt).Seconds())
	}

	e.log.WithFields(logrus.Fields{
		"candidates_in":    candidatesIn,
		"survivors_stage1": len(survivors),
		"final_legs":       len(legs),
	}).Debug("Pipeline run complete")

	return legs, stats
}

// scorePool validates each candidate, estimates its win probability and
// attaches the value metrics. Invalid candidates are dropped one at a time;
// a single bad candidate never aborts the batch.
func (e *Engine) scorePool(snapshot *Snapshot) ([]models.ScoredCandidate, int) {
	now := e.now()
	scored := make([]models.ScoredCandidate, 0, len(snapshot.Candidates))

	for _, candidate := range snapshot.Candidates {
		if err := candidate.Validate(now); err != nil {
			metrics.RecordCandidateDropped(dropReason(err))
			e.dq.LogCandidateDropped(candidate.EventID, candidate.Selection, err.Error())
			continue
		}
		probability := e.estimator.Estimate(candidate)
		scored = append(scored, valuation.Score(candidate, probability))
	}
	return scored, len(snapshot.Candidates)
}

func dropReason(err error) string {
	switch err {
	case models.ErrInvalidOdds:
		return "invalid_odds"
	case models.ErrUnconfirmedOpponent:
		return "unconfirmed_opponent"
	case models.ErrEventNotUpcoming:
		return "event_not_upcoming"
	case models.ErrEventTooFarAhead:
		return "event_too_far_ahead"
	case models.ErrUnsupportedSport:
		return "unsupported_sport"
	case models.ErrMarketNotAllowed:
		return "market_not_allowed"
	case models.ErrMissingSelection:
		return "missing_selection"
	default:
		return "invalid"
	}
}
