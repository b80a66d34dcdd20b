package trend

import (
	"encoding/json"
	"testing"

	"aigate/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(labels []string, values ...float64) []dataset.DataPoint {
	points := make([]dataset.DataPoint, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		if label == "" {
			label = string(rune('A' + i))
		}
		points[i] = dataset.DataPoint{Label: label, Value: v}
	}
	return points
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug"}

func TestSafePercentageChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"positive from zero", 5, 0, 100},
		{"negative from zero", -5, 0, -100},
		{"zero from zero", 0, 0, 0},
		{"plain growth", 110, 100, 10},
		{"plain decline", 90, 100, -10},
		{"loss to profit is an improvement", 50, -50, 200},
		{"profit to loss is a decline", -50, 50, -200},
		{"smaller loss is an improvement", -50, -100, 50},
		{"bigger loss is a decline", -150, -100, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SafePercentageChange(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestAnalyze_GrowthSeries(t *testing.T) {
	a := NewEngine().Analyze(series(months, 500, 600, 750, 900))

	assert.Equal(t, DirectionUp, a.Direction)
	assert.InDelta(t, 80, a.OverallChangePct, 1e-9)
	assert.InDelta(t, 21.6667, a.AvgPeriodGrowthPct, 1e-3)
	assert.InDelta(t, 20, a.LastPeriodChangePct, 1e-9)
	assert.InDelta(t, 0.9764, a.Consistency, 1e-3)
	assert.InDelta(t, 135, a.Slope, 1e-9)
	assert.Equal(t, 4, a.Points)
	assert.Equal(t, Extremum{Label: "Apr", Value: 900, Index: 3}, a.HighPoint)
	assert.Equal(t, Extremum{Label: "Jan", Value: 500, Index: 0}, a.LowPoint)
}

func TestAnalyze_Direction(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Direction
	}{
		{"steady growth", []float64{500, 600, 750, 900}, DirectionUp},
		{"steady decline", []float64{900, 750, 600, 500}, DirectionDown},
		{"small wobble", []float64{100, 101, 100, 102}, DirectionFlat},
		{"constant", []float64{100, 100, 100}, DirectionFlat},
		{"large swings", []float64{100, 150, 90, 160, 80}, DirectionVolatile},
		{"mostly up with one dip", []float64{100, 110, 121, 115, 130, 140}, DirectionUp},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Analyze(series(nil, tt.values...)).Direction)
		})
	}
}

func TestAnalyze_ExtremaKeepEarliestIndexOnTies(t *testing.T) {
	a := NewEngine().Analyze(series(nil, 5, 9, 9, 1, 1))

	assert.Equal(t, 1, a.HighPoint.Index)
	assert.Equal(t, 3, a.LowPoint.Index)
}

func TestAnalyze_ConsistencyTracksNoise(t *testing.T) {
	engine := NewEngine()
	smooth := engine.Analyze(series(nil, 100, 110, 121, 133.1, 146.41))
	noisy := engine.Analyze(series(nil, 100, 300, 50, 400, 20))

	assert.InDelta(t, 1, smooth.Consistency, 1e-9)
	assert.Equal(t, 0.0, noisy.Consistency)
	assert.GreaterOrEqual(t, noisy.Consistency, 0.0)
}

func TestAnalyze_ShortSeries(t *testing.T) {
	engine := NewEngine()

	empty := engine.Analyze(nil)
	assert.Equal(t, DirectionFlat, empty.Direction)
	assert.Equal(t, -1, empty.HighPoint.Index)
	assert.Equal(t, 0, empty.Points)

	single := engine.Analyze(series(months, 42))
	assert.Equal(t, DirectionFlat, single.Direction)
	assert.Equal(t, Extremum{Label: "Jan", Value: 42, Index: 0}, single.HighPoint)
	assert.Equal(t, 0.0, single.OverallChangePct)
}

func TestAnalyze_Deterministic(t *testing.T) {
	engine := NewEngine()
	input := InsightInput{Series: series(months, 120, 80, 95, 140, 160, 150, 170), Context: ContextExpense}

	first, err := json.Marshal(engine.Analyze(input.Series))
	require.NoError(t, err)
	second, err := json.Marshal(engine.Analyze(input.Series))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	firstInsight, err := json.Marshal(engine.GenerateInsight(input))
	require.NoError(t, err)
	secondInsight, err := json.Marshal(engine.GenerateInsight(input))
	require.NoError(t, err)
	assert.Equal(t, string(firstInsight), string(secondInsight))
}
