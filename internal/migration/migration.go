package migration

import (
	"context"

	"aigate/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createDecisionLogTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create decision_log table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createDecisionLogTable(ctx context.Context, db *sqlx.DB) error {
	idType, timeType := "TEXT", "TIMESTAMP"
	if db.DriverName() == "postgres" {
		idType, timeType = "UUID", "TIMESTAMP WITH TIME ZONE"
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS decision_log (
			id `+idType+` PRIMARY KEY,
			module VARCHAR(50) NOT NULL,
			user_input TEXT NOT NULL DEFAULT '',
			output_valid BOOLEAN NOT NULL,
			errors TEXT NOT NULL DEFAULT '[]',
			warnings TEXT NOT NULL DEFAULT '[]',
			response_time_ms BIGINT NOT NULL DEFAULT 0,
			confidence VARCHAR(20) NOT NULL DEFAULT '',
			chart_type VARCHAR(50) NOT NULL DEFAULT '',
			data_point_count INTEGER NOT NULL DEFAULT 0,
			created_at `+timeType+` NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_decision_log_module_created ON decision_log (module, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_log_created ON decision_log (created_at DESC)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
