package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/safe-legs/internal/database"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/pipeline"
)

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run repository
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// rowExecer is the subset of pgx.Tx that insertRun needs.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SaveRun stores one run's funnel stats and its recommended legs in a single
// transaction. A failure on any insert rolls back the whole run.
func (r *PostgresRunRepository) SaveRun(ctx context.Context, stats pipeline.Stats, legs []models.RecommendedLeg) error {
	runID := uuid.New()

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return insertRun(ctx, tx, runID, stats, legs)
	})
}

func insertRun(ctx context.Context, tx rowExecer, runID uuid.UUID, stats pipeline.Stats, legs []models.RecommendedLeg) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pipeline_runs (id, ran_at, snapshot_time, candidates_in, survivors_stage1, final_legs_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, stats.LastRunAt, stats.SnapshotTime, stats.CandidatesIn, stats.SurvivorsStage1, stats.FinalLegsCount)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline run: %w", err)
	}

	for _, leg := range legs {
		_, err := tx.Exec(ctx, `
			INSERT INTO recommended_legs (run_id, rank, candidate_id, event_id, selection, market_type,
				decimal_odds, model_probability, edge, expected_value, consistency_score,
				composite_score, confidence_tier, rivalry_flag, rationale)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, runID, leg.Rank, leg.ID, leg.EventID, leg.Selection, string(leg.MarketType),
			leg.DecimalOdds, leg.ModelProbability, leg.Edge, leg.ExpectedValue, leg.ConsistencyScore,
			leg.CompositeScore, string(leg.ConfidenceTier), leg.RivalryFlag, leg.Rationale)
		if err != nil {
			return fmt.Errorf("failed to insert recommended leg %d: %w", leg.Rank, err)
		}
	}
	return nil
}
