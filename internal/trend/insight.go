package trend

import (
	"fmt"
	"math"
	"strconv"

	"aigate/domain/dataset"
)

// Context says whether "up" is good news (revenue) or bad news (expense)
type Context string

const (
	ContextRevenue Context = "revenue"
	ContextExpense Context = "expense"
	ContextGeneric Context = "generic"
)

// ParseContext maps free-form input to a Context, defaulting to revenue
func ParseContext(s string) Context {
	switch Context(s) {
	case ContextExpense, ContextGeneric:
		return Context(s)
	default:
		return ContextRevenue
	}
}

// Confidence grades how much an insight can be trusted
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Recommendation tiers, in overallChangePct
const (
	AggressiveGrowthPct   = 50.0
	ModerateGrowthPct     = 10.0
	SignificantDeclinePct = -20.0
	// SharpMovePct triggers a last-period alert
	SharpMovePct = 30.0
)

// InsightInput is the series plus how to talk about it
type InsightInput struct {
	Series  []dataset.DataPoint `json:"series"`
	Context Context             `json:"context,omitempty"`
	// Metric names the series in prose, e.g. "Revenue"
	Metric string `json:"metric,omitempty"`
}

// GeneratedInsight is the narrative built from TrendAnalysis facts
type GeneratedInsight struct {
	Summary        string     `json:"summary"`
	Recommendation string     `json:"recommendation"`
	Prediction     string     `json:"prediction,omitempty"`
	Projection     *float64   `json:"projection,omitempty"`
	Alerts         []string   `json:"alerts,omitempty"`
	Confidence     Confidence `json:"confidence"`
}

// Narrative is the text that stage 3 of the gate checks for this insight
func (g GeneratedInsight) Narrative() string {
	return g.Summary + " " + g.Recommendation
}

// GenerateInsight analyses input.Series and writes the insight from those facts
func (e *Engine) GenerateInsight(input InsightInput) GeneratedInsight {
	return e.GenerateInsightFrom(input, e.Analyze(input.Series))
}

// GenerateInsightFrom writes the insight from an analysis already computed for input.Series
func (e *Engine) GenerateInsightFrom(input InsightInput, analysis TrendAnalysis) GeneratedInsight {
	ctx := input.Context
	if ctx == "" {
		ctx = ContextRevenue
	}
	metric := input.Metric
	if metric == "" {
		metric = defaultMetric(ctx)
	}

	if len(input.Series) < 2 {
		return GeneratedInsight{
			Summary:        "There is not enough data to describe a trend.",
			Recommendation: "Provide at least two data points.",
			Confidence:     ConfidenceLow,
		}
	}

	insight := GeneratedInsight{
		Summary:        summary(metric, ctx, input.Series, analysis),
		Recommendation: recommendation(ctx, analysis),
		Confidence:     confidence(len(input.Series), analysis.Consistency),
	}

	if len(input.Series) >= 3 && analysis.Consistency > 0.5 {
		last := input.Series[len(input.Series)-1].Value
		projected := last * (1 + analysis.AvgPeriodGrowthPct/100)
		insight.Projection = &projected
		insight.Prediction = fmt.Sprintf("If the current pace holds, the next period is projected at about %s.", formatValue(projected))
	}

	if math.Abs(analysis.LastPeriodChangePct) >= SharpMovePct {
		insight.Alerts = append(insight.Alerts,
			fmt.Sprintf("The last period moved %+.1f%%, a sharp swing worth reviewing.", analysis.LastPeriodChangePct))
	}
	if analysis.Direction == DirectionVolatile {
		insight.Alerts = append(insight.Alerts, "Movements are irregular; treat averages and projections with caution.")
	}

	return insight
}

func defaultMetric(ctx Context) string {
	switch ctx {
	case ContextExpense:
		return "Expenses"
	case ContextGeneric:
		return "The series"
	default:
		return "Revenue"
	}
}

func summary(metric string, ctx Context, series []dataset.DataPoint, a TrendAnalysis) string {
	first, last := series[0], series[len(series)-1]
	span := fmt.Sprintf("from %s (%s) to %s (%s)", formatValue(first.Value), first.Label, formatValue(last.Value), last.Label)

	switch a.Direction {
	case DirectionUp:
		verb := "grew"
		if ctx == ContextExpense {
			verb = "increased"
		}
		if a.OverallChangePct < 0 || a.AvgPeriodGrowthPct < 0 {
			return againstNet(metric, verb, span, a)
		}
		return fmt.Sprintf("%s %s %.1f%% %s, an average increase of %.1f%% per period.",
			metric, verb, a.OverallChangePct, span, a.AvgPeriodGrowthPct)
	case DirectionDown:
		verb := "declined"
		if ctx == ContextExpense {
			verb = "decreased"
		}
		if a.OverallChangePct > 0 || a.AvgPeriodGrowthPct > 0 {
			return againstNet(metric, verb, span, a)
		}
		return fmt.Sprintf("%s %s %.1f%% %s, an average decrease of %.1f%% per period.",
			metric, verb, -a.OverallChangePct, span, -a.AvgPeriodGrowthPct)
	case DirectionFlat:
		return fmt.Sprintf("%s remained stable, changing %.1f%% across %d periods.",
			metric, a.OverallChangePct, len(series))
	default:
		return fmt.Sprintf("%s moved irregularly with a net change of %.1f%%, peaking at %s in %s and bottoming at %s in %s.",
			metric, a.OverallChangePct,
			formatValue(a.HighPoint.Value), a.HighPoint.Label,
			formatValue(a.LowPoint.Value), a.LowPoint.Label)
	}
}

// againstNet describes a series whose step count and net or average change point different ways.
// The verb follows the step count; the figures stay signed.
func againstNet(metric, verb, span string, a TrendAnalysis) string {
	return fmt.Sprintf("%s %s in most periods, with a net change of %+.1f%% %s and an average change of %+.1f%% per period.",
		metric, verb, a.OverallChangePct, span, a.AvgPeriodGrowthPct)
}

func recommendation(ctx Context, a TrendAnalysis) string {
	expense := ctx == ContextExpense

	switch a.Direction {
	case DirectionUp:
		switch {
		case expense && a.OverallChangePct >= AggressiveGrowthPct:
			return "Costs are climbing sharply: review the largest cost items and set spending limits."
		case expense:
			return "Keep spending growth in check and compare it against revenue growth."
		case a.OverallChangePct >= AggressiveGrowthPct:
			return "Momentum is strong: scale what is driving the growth and make sure capacity keeps pace with demand."
		case a.OverallChangePct >= ModerateGrowthPct:
			return "Keep the current strategy and track the drivers behind this increase."
		default:
			return "Growth is modest; look for levers that can accelerate it."
		}
	case DirectionDown:
		switch {
		case expense && a.OverallChangePct <= SignificantDeclinePct:
			return "Cost savings are substantial; document what worked so the savings can be sustained."
		case expense:
			return "Costs are trending lower; keep the current cost controls in place."
		case a.OverallChangePct <= SignificantDeclinePct:
			return "The decline is significant: investigate root causes and prioritise customer retention."
		default:
			return "Review pricing and channel performance to stop the decrease."
		}
	case DirectionFlat:
		if expense {
			return "Spending is stable and predictable; budget against the current run rate."
		}
		return "Performance is steady; test new initiatives to unlock growth."
	default:
		return "Results swing from period to period; check for seasonal or one-off effects before planning ahead."
	}
}

func confidence(points int, consistency float64) Confidence {
	switch {
	case points >= 6 && consistency > 0.7:
		return ConfidenceHigh
	case points >= 3 && consistency > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// formatValue prints integers without decimals and everything else with two
func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
