package validation

import (
	"math"
	"strings"
	"testing"

	"aigate/domain/dataset"
	"aigate/internal/errors"
	"aigate/internal/trend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(labels []string, values ...float64) []dataset.DataPoint {
	out := make([]dataset.DataPoint, len(values))
	for i, v := range values {
		out[i] = dataset.DataPoint{Label: labels[i], Value: v}
	}
	return out
}

var bulan = []string{"Januari", "Februari", "Maret", "April", "Mei", "Juni"}

func hasWarning(v Verdict, substr string) bool {
	for _, w := range v.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestGate_GrowthSeriesWithMatchingNarrative(t *testing.T) {
	gate := NewGate(trend.NewEngine())
	ds := dataset.FromSeries(points(bulan, 500, 600, 750, 900))

	v := gate.Validate(ds, "Pendapatan naik 80% dari Januari ke April.")

	assert.True(t, v.Passed)
	assert.Equal(t, StagePassed, v.Stage)
	assert.True(t, v.CanRender)
	assert.False(t, v.RequiresConfirmation)
	assert.Equal(t, trend.DirectionUp, v.Direction)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestGate_ContradictingNarrativeFailsBusinessStageOnly(t *testing.T) {
	gate := NewGate(nil)
	ds := dataset.FromSeries(points(bulan, 500, 600, 750, 900))

	v := gate.Validate(ds, "Terjadi penurunan pendapatan, a clear decline over the quarter.")

	assert.False(t, v.Passed)
	assert.Equal(t, StageBusiness, v.Stage)
	assert.True(t, v.SchemaValid)
	assert.True(t, v.SemanticValid)
	assert.False(t, v.BusinessValid)
	assert.True(t, v.CanRender, "an inconsistent narrative must not block trustworthy data")
	assert.True(t, hasWarning(v, `"penurunan"`))
	assert.True(t, hasWarning(v, `"decline"`))
	assert.True(t, hasWarning(v, "does not describe the up trend"))
}

func TestGate_GeneratedInsightPassesItsOwnSeries(t *testing.T) {
	engine := trend.NewEngine()
	gate := NewGate(engine)
	series := points(bulan, 900, 750, 600, 500)
	analysis := engine.Analyze(series)
	insight := engine.GenerateInsightFrom(trend.InsightInput{Series: series}, analysis)

	v := gate.ValidateWithAnalysis(dataset.FromSeries(series), insight.Narrative(), &analysis)

	assert.True(t, v.Passed, "warnings: %v", v.Warnings)
	assert.Equal(t, trend.DirectionDown, v.Direction)
}

func TestGate_SinglePoint(t *testing.T) {
	v := NewGate(nil).Validate(dataset.FromSeries(points(bulan, 42)), "")

	assert.False(t, v.Passed)
	assert.False(t, v.CanRender)
	assert.Equal(t, StageSemantic, v.Stage)
	assert.Equal(t, []string{ErrMinimumTwoPoint}, v.Errors)
	assert.False(t, v.BusinessValid)
}

func TestGate_NoData(t *testing.T) {
	v := NewGate(nil).Validate(dataset.Dataset{Success: true}, "")

	assert.False(t, v.CanRender)
	assert.Equal(t, []string{ErrNoData}, v.Errors)
}

func TestGate_OutlierRequiresConfirmation(t *testing.T) {
	gate := NewGate(nil)
	v := gate.Validate(dataset.FromSeries(points(bulan, 500, 600, 50000, 800)), "")

	assert.True(t, v.SchemaValid)
	assert.True(t, v.SemanticValid)
	assert.True(t, v.RequiresConfirmation)
	assert.False(t, v.CanRender)
	require.True(t, hasWarning(v, `Outlier at "Maret" (point 3)`), "warnings: %v", v.Warnings)
	assert.True(t, hasWarning(v, "+285.4%"))

	confirmed := Confirm(v)
	assert.True(t, confirmed.CanRender)
	assert.True(t, confirmed.Confirmed)
	assert.False(t, v.CanRender, "Confirm must not mutate the original verdict")
}

func TestGate_ConfirmDoesNotRescueFatalVerdicts(t *testing.T) {
	v := NewGate(nil).Validate(dataset.FromSeries(points(bulan, -5)), "")
	assert.False(t, Confirm(v).CanRender)

	broken := NewGate(nil).Validate(dataset.Failed("no series found"), "")
	assert.False(t, Confirm(broken).CanRender)
}

func TestGate_MonotonicConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		confirm bool
	}{
		{"negative value", []float64{100, -20, 130}, true},
		{"high outlier", []float64{100, 120, 110, 5000}, true},
		{"low outlier", []float64{1000, 1200, 1100, 50}, true},
		{"zero only informs", []float64{100, 0, 120, 130}, false},
		{"plain growth", []float64{100, 120, 140, 160}, false},
		{"duplicates only inform", []float64{100, 110, 120}, false},
		{"big but under ten times", []float64{100, 120, 900}, false},
	}

	gate := NewGate(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := bulan
			if tt.name == "duplicates only inform" {
				labels = []string{"Q1", "q1 ", "Q2"}
			}
			v := gate.Validate(dataset.FromSeries(points(labels, tt.values...)), "")
			assert.True(t, v.SemanticValid)
			assert.Equal(t, tt.confirm, v.RequiresConfirmation, "warnings: %v", v.Warnings)
		})
	}
}

func TestGate_SemanticWarnings(t *testing.T) {
	v := NewGate(nil).Validate(dataset.FromSeries(points([]string{"Jan", "JAN", "Feb", "Mar"}, 100, 0, -30, 120)), "")

	assert.True(t, hasWarning(v, `Zero value at "JAN" (point 2)`))
	assert.True(t, hasWarning(v, "Negative values detected: Feb (-30)"))
	assert.True(t, hasWarning(v, `Duplicate label "JAN"`))
	assert.True(t, v.RequiresConfirmation)
}

func TestVerdict_Err(t *testing.T) {
	gate := NewGate(nil)

	structural := gate.Validate(dataset.Failed("model returned no numbers"), "").Err()
	require.Error(t, structural)
	assert.True(t, errors.HasCode(structural, errors.CodeStructural))
	assert.Contains(t, structural.Error(), "model returned no numbers")

	semantic := gate.Validate(dataset.FromSeries(points(bulan, 42)), "").Err()
	require.Error(t, semantic)
	assert.True(t, errors.HasCode(semantic, errors.CodeSemantic))
	assert.Contains(t, semantic.Error(), ErrMinimumTwoPoint)

	outlier := gate.Validate(dataset.FromSeries(points(bulan, 500, 600, 50000, 800)), "")
	assert.NoError(t, outlier.Err(), "confirmation warnings are not fatal")

	contradicted := gate.Validate(dataset.FromSeries(points(bulan, 500, 600, 750, 900)), "penjualan turun")
	assert.False(t, contradicted.BusinessValid)
	assert.NoError(t, contradicted.Err())
}

func TestGate_PassedButUnconfirmedCannotRender(t *testing.T) {
	v := NewGate(nil).Validate(dataset.FromSeries(points(bulan, 500, 600, 50000, 800)), "")

	assert.True(t, v.Passed)
	assert.True(t, v.RequiresConfirmation)
	assert.False(t, v.CanRender)
}

func TestGate_SchemaFailuresShortCircuit(t *testing.T) {
	trillion := dataset.Unit("trillion")
	tests := []struct {
		name string
		ds   dataset.Dataset
		want string
	}{
		{"missing label", dataset.FromSeries([]dataset.DataPoint{{Label: "Jan", Value: 1}, {Value: 2}}), "dataPoints[1].label is required"},
		{"blank label", dataset.FromSeries([]dataset.DataPoint{{Label: "Jan", Value: 1}, {Label: "  ", Value: 2}}), "dataPoints[1].label must not be blank"},
		{"nan value", dataset.FromSeries([]dataset.DataPoint{{Label: "Jan", Value: math.NaN()}, {Label: "Feb", Value: 2}}), "dataPoints[0].value must be a finite number"},
		{"infinite value", dataset.FromSeries([]dataset.DataPoint{{Label: "Jan", Value: 1}, {Label: "Feb", Value: math.Inf(1)}}), "dataPoints[1].value must be a finite number"},
		{"unknown unit", dataset.Dataset{Success: true, DataPoints: points(bulan, 1, 2), DetectedUnit: &trillion}, "detectedUnit must be one of"},
		{"extraction failed", dataset.Failed("model returned no numbers"), "model returned no numbers"},
	}

	gate := NewGate(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := gate.Validate(tt.ds, "naik")
			assert.Equal(t, StageSchema, v.Stage)
			assert.False(t, v.SchemaValid)
			assert.False(t, v.SemanticValid)
			assert.False(t, v.CanRender)
			require.NotEmpty(t, v.Errors)
			assert.Contains(t, strings.Join(v.Errors, "; "), tt.want)
		})
	}
}

func TestGate_CarriesExtractionWarnings(t *testing.T) {
	ds := dataset.FromSeries(points(bulan, 1500, 2000, 2500))
	ds.Warnings = []string{"Mixed units were normalised to base units"}
	ds.RequiresConfirmation = true

	v := NewGate(nil).Validate(ds, "")

	assert.True(t, hasWarning(v, "Mixed units"))
	assert.True(t, v.RequiresConfirmation)
	assert.False(t, v.CanRender)
}

func TestGate_FlatNarrativeNeedsStableVocabulary(t *testing.T) {
	gate := NewGate(nil)
	ds := dataset.FromSeries(points(bulan, 100, 101, 100, 102))

	assert.True(t, gate.Validate(ds, "Sales stayed stable all quarter.").Passed)
	assert.False(t, gate.Validate(ds, "Sales moved around a bit.").BusinessValid)
}

func TestGate_VolatileNarrativeIsNotChecked(t *testing.T) {
	v := NewGate(nil).Validate(dataset.FromSeries(points(bulan, 100, 150, 90, 160, 80)), "Revenue surged then fell.")

	assert.Equal(t, trend.DirectionVolatile, v.Direction)
	assert.True(t, v.Passed)
}

func TestValidatePayload(t *testing.T) {
	gate := NewGate(nil)

	t.Run("valid payload", func(t *testing.T) {
		raw := []byte(`{"success":true,"dataPoints":[{"label":"Jan","value":500},{"label":"Feb","value":600},{"label":"Mar","value":750}],"detectedUnit":null}`)
		v := gate.ValidatePayload(raw, "naik")
		assert.True(t, v.Passed)
	})

	t.Run("string value", func(t *testing.T) {
		raw := []byte(`{"success":true,"dataPoints":[{"label":"Jan","value":"500"},{"label":"Feb","value":600}]}`)
		v := gate.ValidatePayload(raw, "")
		assert.False(t, v.SchemaValid)
		assert.Contains(t, v.Errors, "dataPoints[0].value must be a number")
	})

	t.Run("missing success", func(t *testing.T) {
		v := gate.ValidatePayload([]byte(`{"dataPoints":[]}`), "")
		assert.Contains(t, v.Errors, "success is required")
	})

	t.Run("dataPoints not an array", func(t *testing.T) {
		v := gate.ValidatePayload([]byte(`{"success":true,"dataPoints":{"label":"Jan"}}`), "")
		assert.Contains(t, v.Errors, "dataPoints must be an array")
	})

	t.Run("not json", func(t *testing.T) {
		v := gate.ValidatePayload([]byte(`here is your chart`), "")
		assert.Equal(t, []string{"payload is not valid JSON"}, v.Errors)
		assert.False(t, v.CanRender)
	})

	t.Run("reported failure", func(t *testing.T) {
		v := gate.ValidatePayload([]byte(`{"success":false,"errors":["could not read table"]}`), "")
		assert.Equal(t, []string{"could not read table"}, v.Errors)
	})
}
