package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DecisionLog is the persisted form of one gate decision
type DecisionLog struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Module         string    `json:"module" db:"module"` // 'chart', 'report', 'insight', etc.
	UserInput      string    `json:"user_input" db:"user_input"`
	OutputValid    bool      `json:"output_valid" db:"output_valid"`
	Errors         string    `json:"errors" db:"errors"`     // JSON array
	Warnings       string    `json:"warnings" db:"warnings"` // JSON array
	ResponseTimeMs int64     `json:"response_time_ms" db:"response_time_ms"`
	Confidence     string    `json:"confidence" db:"confidence"`
	ChartType      string    `json:"chart_type" db:"chart_type"`
	DataPointCount int       `json:"data_point_count" db:"data_point_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// DecisionSummary aggregates decisions for one module
type DecisionSummary struct {
	Module           string  `json:"module" db:"module"`
	Total            int     `json:"total" db:"total"`
	Invalid          int     `json:"invalid" db:"invalid"`
	AvgResponseMs    float64 `json:"avg_response_ms" db:"avg_response_ms"`
	InvalidRatePct   float64 `json:"invalid_rate_pct" db:"-"`
	LatestDecisionAt string  `json:"latest_decision_at,omitempty" db:"latest_decision_at"`
}

// Gate modules, used as the module label on decisions and fallback messages
const (
	ModuleChat    = "chat"
	ModuleChart   = "chart"
	ModuleReport  = "report"
	ModuleLetter  = "letter"
	ModuleInsight = "insight"
)

// Validate checks a decision before it is stored
func (d *DecisionLog) Validate() error {
	if d.Module == "" {
		return fmt.Errorf("module is required")
	}
	if d.ResponseTimeMs < 0 {
		return fmt.Errorf("response time must not be negative, got %d", d.ResponseTimeMs)
	}
	if d.DataPointCount < 0 {
		return fmt.Errorf("data point count must not be negative, got %d", d.DataPointCount)
	}
	for name, raw := range map[string]string{"errors": d.Errors, "warnings": d.Warnings} {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return fmt.Errorf("%s must be a JSON array of strings: %w", name, err)
		}
	}
	return nil
}

// IsKnownModule reports whether module has a dedicated fallback message
func IsKnownModule(module string) bool {
	switch module {
	case ModuleChat, ModuleChart, ModuleReport, ModuleLetter, ModuleInsight:
		return true
	}
	return false
}
