package ports

import (
	"context"
	"time"

	"aigate/models"
)

// DecisionLogRepository persists gate decisions recorded by the production monitor
type DecisionLogRepository interface {
	// Record a single decision
	Record(ctx context.Context, entry *models.DecisionLog) error

	// ListRecent returns the newest decisions first; an empty module means all modules
	ListRecent(ctx context.Context, module string, limit int) ([]*models.DecisionLog, error)

	// Summary aggregates decisions per module since the given time
	Summary(ctx context.Context, since time.Time) ([]*models.DecisionSummary, error)
}
