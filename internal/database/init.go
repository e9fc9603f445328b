package database

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/config"
)

// Initialize creates a database connection pool and reports migration status
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// Verify migrations are applied by checking schema_migrations table
	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err != nil {
		// Table might not exist yet, which is OK for initial setup
		log.Warn("schema_migrations table not found; run database migrations")
		return db, nil
	}

	if migrationCount == 0 {
		log.Warn("No migrations have been applied; run database migrations")
	}

	return db, nil
}
