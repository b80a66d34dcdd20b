package validation

import (
	"fmt"
	"strings"

	"aigate/domain/dataset"
	"aigate/internal/trend"

	"github.com/montanaflynn/stats"
)

const (
	// OutlierFactor bounds how far a positive value may sit from the median of the positives
	OutlierFactor = 10.0
	// minPositivesForOutliers is the sample size below which a median is not meaningful
	minPositivesForOutliers = 3
)

// Fatal semantic errors, surfaced verbatim to callers
const (
	ErrNoData          = "no data"
	ErrMinimumTwoPoint = "minimum two points required"
)

// checkSemantic applies the plausibility rules to the data points
func checkSemantic(points []dataset.DataPoint) StageResult {
	switch len(points) {
	case 0:
		return StageResult{Errors: []string{ErrNoData}}
	case 1:
		return StageResult{Errors: []string{ErrMinimumTwoPoint}}
	}

	res := StageResult{Valid: true}

	var negatives []string
	for i, p := range points {
		switch {
		case p.Value < 0:
			negatives = append(negatives, fmt.Sprintf("%s (%s)", p.Label, formatNumber(p.Value)))
		case p.Value == 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("Zero value at %q (point %d)", p.Label, i+1))
		}
	}
	if len(negatives) > 0 {
		res.Warnings = append(res.Warnings, "Negative values detected: "+strings.Join(negatives, ", "))
		res.RequiresConfirmation = true
	}

	if outliers := findOutliers(points); len(outliers) > 0 {
		res.Warnings = append(res.Warnings, outliers...)
		res.RequiresConfirmation = true
	}

	res.Warnings = append(res.Warnings, duplicateLabels(points)...)
	return res
}

func findOutliers(points []dataset.DataPoint) []string {
	var positives []float64
	all := make([]float64, len(points))
	for i, p := range points {
		all[i] = p.Value
		if p.Value > 0 {
			positives = append(positives, p.Value)
		}
	}
	if len(positives) < minPositivesForOutliers {
		return nil
	}

	median, err := stats.Median(positives)
	if err != nil || median <= 0 {
		return nil
	}
	mean, err := stats.Mean(all)
	if err != nil {
		return nil
	}

	var warnings []string
	for i, p := range points {
		if p.Value <= 0 {
			continue
		}
		if p.Value > median*OutlierFactor || p.Value < median/OutlierFactor {
			warnings = append(warnings, fmt.Sprintf("Outlier at %q (point %d): %s deviates %+.1f%% from the mean of %s",
				p.Label, i+1, formatNumber(p.Value), trend.SafePercentageChange(p.Value, mean), formatNumber(mean)))
		}
	}
	return warnings
}

func duplicateLabels(points []dataset.DataPoint) []string {
	seen := make(map[string]int, len(points))
	var warnings []string
	for _, p := range points {
		key := dataset.NormalizeLabel(p.Label)
		seen[key]++
		if seen[key] == 2 {
			warnings = append(warnings, fmt.Sprintf("Duplicate label %q", p.Label))
		}
	}
	return warnings
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
