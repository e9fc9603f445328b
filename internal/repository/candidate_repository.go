package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/safe-legs/internal/database"
	"github.com/yourusername/safe-legs/internal/models"
)

// PostgresCandidateRepository implements CandidateRepository for PostgreSQL
type PostgresCandidateRepository struct {
	db *database.DB
}

// NewPostgresCandidateRepository creates a new candidate repository
func NewPostgresCandidateRepository(db *database.DB) CandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

// InsertBatch stores one fetch batch using a bulk COPY
func (r *PostgresCandidateRepository) InsertBatch(ctx context.Context, candidates []models.BetCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	columns := []string{
		"id", "sport", "market_type", "event_id", "event_start_time",
		"home_team", "away_team", "selection", "line", "decimal_odds",
		"bookmaker", "context_features", "fetched_at",
	}

	rows := make([][]interface{}, len(candidates))
	for i, c := range candidates {
		features, err := json.Marshal(c.ContextFeatures)
		if err != nil {
			return fmt.Errorf("failed to encode context features for %s: %w", c.EventID, err)
		}
		rows[i] = []interface{}{
			c.ID, string(c.Sport), string(c.MarketType), c.EventID, c.EventStartTime,
			c.HomeTeam, c.AwayTeam, c.Selection, c.Line, c.DecimalOdds,
			c.Bookmaker, features, c.FetchedAt,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"bet_candidates"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert candidates: %w", err)
	}
	if count != int64(len(candidates)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(candidates))
	}

	return nil
}

// LatestSnapshot returns the most recent batch and its fetch time
func (r *PostgresCandidateRepository) LatestSnapshot(ctx context.Context) ([]models.BetCandidate, time.Time, error) {
	var fetchedAt time.Time
	err := r.db.GetPool().QueryRow(ctx,
		"SELECT COALESCE(MAX(fetched_at), 'epoch'::timestamptz) FROM bet_candidates",
	).Scan(&fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	if fetchedAt.IsZero() || fetchedAt.Unix() == 0 {
		return nil, time.Time{}, nil
	}

	query := `
		SELECT id, sport, market_type, event_id, event_start_time,
		       home_team, away_team, selection, line, decimal_odds,
		       bookmaker, context_features, fetched_at
		FROM bet_candidates
		WHERE fetched_at = $1
		ORDER BY event_start_time, event_id, selection
	`

	rows, err := r.db.GetPool().Query(ctx, query, fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	defer rows.Close()

	var candidates []models.BetCandidate
	for rows.Next() {
		var c models.BetCandidate
		var features []byte
		err := rows.Scan(
			&c.ID, &c.Sport, &c.MarketType, &c.EventID, &c.EventStartTime,
			&c.HomeTeam, &c.AwayTeam, &c.Selection, &c.Line, &c.DecimalOdds,
			&c.Bookmaker, &features, &c.FetchedAt,
		)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if len(features) > 0 {
			if err := json.Unmarshal(features, &c.ContextFeatures); err != nil {
				return nil, time.Time{}, fmt.Errorf("failed to decode context features for %s: %w", c.EventID, err)
			}
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return candidates, fetchedAt, nil
}

// DeleteOlderThan removes candidates fetched before the cutoff
func (r *PostgresCandidateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM bet_candidates WHERE fetched_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale candidates: %w", err)
	}
	return tag.RowsAffected(), nil
}
