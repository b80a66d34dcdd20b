package dataset

import "strings"

// Unit is the magnitude a series was written in by the model
type Unit string

const (
	UnitThousand Unit = "thousand"
	UnitMillion  Unit = "million"
	UnitBillion  Unit = "billion"
	UnitBase     Unit = "unit"
)

// Multiplier returns the factor that converts a value in u to base units
func (u Unit) Multiplier() float64 {
	switch u {
	case UnitThousand:
		return 1e3
	case UnitMillion:
		return 1e6
	case UnitBillion:
		return 1e9
	default:
		return 1
	}
}

// DataPoint is one labelled value of a series. Order is caller-supplied and never re-sorted.
type DataPoint struct {
	Label    string  `json:"label" validate:"required"`
	Value    float64 `json:"value"`
	RawValue string  `json:"rawValue,omitempty"`
}

// Dataset is a candidate series extracted from model output
type Dataset struct {
	Success              bool        `json:"success"`
	DataPoints           []DataPoint `json:"dataPoints,omitempty" validate:"omitempty,dive"`
	DetectedUnit         *Unit       `json:"detectedUnit,omitempty" validate:"omitempty,oneof=thousand million billion unit"`
	Warnings             []string    `json:"warnings,omitempty"`
	Errors               []string    `json:"errors,omitempty"`
	RequiresConfirmation bool        `json:"requiresConfirmation"`
}

// Failed builds the success=false form, which carries only errors
func Failed(errs ...string) Dataset {
	return Dataset{Success: false, Errors: errs}
}

// FromSeries wraps an already-parsed series as a successful dataset
func FromSeries(points []DataPoint) Dataset {
	return Dataset{Success: true, DataPoints: points}
}

// Values returns the numeric values in series order
func (d Dataset) Values() []float64 {
	values := make([]float64, len(d.DataPoints))
	for i, p := range d.DataPoints {
		values[i] = p.Value
	}
	return values
}

// Candidate is everything recovered from one model response
type Candidate struct {
	Dataset   Dataset `json:"dataset"`
	Narrative string  `json:"narrative,omitempty"`
	ChartType string  `json:"chartType,omitempty"`
}

// NormalizeLabel is the comparison key used for duplicate detection
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
