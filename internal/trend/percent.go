package trend

import "math"

// SafePercentageChange returns the change from previous to current in percent.
//
// A zero previous value yields +100, -100 or 0 by the sign of current. Otherwise the change is
// measured against |previous|, so a move from a negative to a positive value (or from -100 to
// -50) reads as an improvement instead of a sign-flipped ratio.
func SafePercentageChange(current, previous float64) float64 {
	if previous == 0 {
		switch {
		case current > 0:
			return 100
		case current < 0:
			return -100
		default:
			return 0
		}
	}
	return (current - previous) * 100 / math.Abs(previous)
}

func stepChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes = append(changes, SafePercentageChange(values[i], values[i-1]))
	}
	return changes
}
