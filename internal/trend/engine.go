package trend

import (
	"math"

	"aigate/domain/dataset"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Direction classifies the overall shape of a series
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionFlat     Direction = "flat"
	DirectionVolatile Direction = "volatile"
)

// Classification policy
const (
	// StepThresholdPct is the per-step move that counts as an up-step or down-step
	StepThresholdPct = 2.0
	// FlatThresholdPct bounds |overallChangePct| for a flat series
	FlatThresholdPct = 5.0
	// StepDominance is how many times one step kind must outnumber the other
	StepDominance = 2
)

// Extremum is a labelled high or low point
type Extremum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Index int     `json:"index"`
}

// TrendAnalysis holds the facts derived from a series. It is a pure function of the input.
type TrendAnalysis struct {
	Direction           Direction `json:"direction"`
	OverallChangePct    float64   `json:"overallChangePct"`
	AvgPeriodGrowthPct  float64   `json:"avgPeriodGrowthPct"`
	Consistency         float64   `json:"consistency"`
	HighPoint           Extremum  `json:"highPoint"`
	LowPoint            Extremum  `json:"lowPoint"`
	LastPeriodChangePct float64   `json:"lastPeriodChangePct"`
	// Slope is the least-squares change per period in series units
	Slope  float64 `json:"slope"`
	Points int     `json:"points"`
}

// Engine computes trend facts and insights. It holds no state and does no I/O.
type Engine struct{}

// NewEngine creates a new trend engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze derives trend facts from an ordered series
func (e *Engine) Analyze(series []dataset.DataPoint) TrendAnalysis {
	analysis := TrendAnalysis{
		Direction: DirectionFlat,
		Points:    len(series),
		HighPoint: Extremum{Index: -1},
		LowPoint:  Extremum{Index: -1},
	}
	if len(series) == 0 {
		return analysis
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	analysis.HighPoint, analysis.LowPoint = extrema(series)
	if len(series) < 2 {
		return analysis
	}

	changes := stepChanges(values)
	analysis.OverallChangePct = SafePercentageChange(values[len(values)-1], values[0])
	analysis.LastPeriodChangePct = changes[len(changes)-1]

	mean, err := stats.Mean(changes)
	if err == nil {
		analysis.AvgPeriodGrowthPct = mean
	}
	analysis.Consistency = consistency(changes)
	analysis.Direction = classify(changes, analysis.OverallChangePct)
	analysis.Slope = slope(values)

	return analysis
}

// classify applies the step-count policy, then the flat band, else volatile
func classify(changes []float64, overallChangePct float64) Direction {
	upSteps, downSteps := 0, 0
	for _, c := range changes {
		switch {
		case c > StepThresholdPct:
			upSteps++
		case c < -StepThresholdPct:
			downSteps++
		}
	}

	switch {
	case upSteps > StepDominance*downSteps:
		return DirectionUp
	case downSteps > StepDominance*upSteps:
		return DirectionDown
	case math.Abs(overallChangePct) < FlatThresholdPct:
		return DirectionFlat
	default:
		return DirectionVolatile
	}
}

// consistency maps the population stddev of step changes onto [0,1]
func consistency(changes []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(changes)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return math.Max(0, 1-sd/100)
}

// extrema keeps the first index on ties
func extrema(series []dataset.DataPoint) (high, low Extremum) {
	high = Extremum{Label: series[0].Label, Value: series[0].Value, Index: 0}
	low = high
	for i := 1; i < len(series); i++ {
		p := series[i]
		if p.Value > high.Value {
			high = Extremum{Label: p.Label, Value: p.Value, Index: i}
		}
		if p.Value < low.Value {
			low = Extremum{Label: p.Label, Value: p.Value, Index: i}
		}
	}
	return high, low
}

func slope(values []float64) float64 {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}
