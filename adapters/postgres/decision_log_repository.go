package postgres

import (
	"context"
	"time"

	"aigate/internal/errors"
	"aigate/models"
	"aigate/ports"

	"github.com/jmoiron/sqlx"
)

// DecisionLogRepositoryImpl implements DecisionLogRepository on PostgreSQL.
// Queries are rebound per driver so the same code serves SQLite for local runs.
type DecisionLogRepositoryImpl struct {
	db *sqlx.DB
}

// NewDecisionLogRepository creates a new decision log repository
func NewDecisionLogRepository(db *sqlx.DB) ports.DecisionLogRepository {
	return &DecisionLogRepositoryImpl{db: db}
}

// Record inserts one decision
func (r *DecisionLogRepositoryImpl) Record(ctx context.Context, entry *models.DecisionLog) error {
	if err := entry.Validate(); err != nil {
		return errors.Wrap(errors.ValidationError(err.Error()), "invalid decision log entry")
	}
	row := *entry
	row.CreatedAt = row.CreatedAt.UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO decision_log (
			id, module, user_input, output_valid, errors, warnings,
			response_time_ms, confidence, chart_type, data_point_count, created_at
		) VALUES (
			:id, :module, :user_input, :output_valid, :errors, :warnings,
			:response_time_ms, :confidence, :chart_type, :data_point_count, :created_at
		)
	`, &row)
	return err
}

// ListRecent returns the newest decisions first, optionally for one module
func (r *DecisionLogRepositoryImpl) ListRecent(ctx context.Context, module string, limit int) ([]*models.DecisionLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, module, user_input, output_valid, errors, warnings,
		       response_time_ms, confidence, chart_type, data_point_count, created_at
		FROM decision_log`
	args := []interface{}{}
	if module != "" {
		query += ` WHERE module = ?`
		args = append(args, module)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var entries []*models.DecisionLog
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...)
	return entries, err
}

// Summary aggregates decisions per module since the given time
func (r *DecisionLogRepositoryImpl) Summary(ctx context.Context, since time.Time) ([]*models.DecisionSummary, error) {
	var summaries []*models.DecisionSummary
	err := r.db.SelectContext(ctx, &summaries, r.db.Rebind(`
		SELECT
			module,
			COUNT(*) AS total,
			SUM(CASE WHEN output_valid THEN 0 ELSE 1 END) AS invalid,
			AVG(response_time_ms) AS avg_response_ms,
			MAX(created_at) AS latest_decision_at
		FROM decision_log
		WHERE created_at >= ?
		GROUP BY module
		ORDER BY module
	`), since.UTC())
	if err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if s.Total > 0 {
			s.InvalidRatePct = float64(s.Invalid) * 100 / float64(s.Total)
		}
	}
	return summaries, nil
}
