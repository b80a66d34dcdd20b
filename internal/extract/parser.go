package extract

import (
	"fmt"
	"sort"
	"strings"

	"aigate/domain/dataset"
	"aigate/internal"

	"github.com/tidwall/gjson"
)

// Field aliases models use for the same concept, tried in order
var (
	seriesPaths    = []string{"dataPoints", "data", "series", "values", "chart.dataPoints", "chart.data"}
	labelKeys      = []string{"label", "name", "period", "month", "x"}
	valueKeys      = []string{"value", "amount", "total", "y"}
	chartTypePaths = []string{"chartType", "type", "chart.type"}
	narrativePaths = []string{"narrative", "insight", "summary", "description"}
)

var logger = internal.DefaultLogger.With("Extract")

type rawPoint struct {
	label string
	raw   string
	// number is set when the payload carried a JSON number
	number *float64
}

// Parse recovers a candidate dataset, narrative and chart type from one model response.
// It accepts a JSON payload (optionally fenced or wrapped in chatter) or "Label: value" lines.
func Parse(text string) dataset.Candidate {
	if payload, ok := findJSON(text); ok {
		logger.Debug("found JSON payload (%d bytes)", len(payload))
		return parseJSON(gjson.Parse(payload))
	}

	points, narrative := parseLines(text)
	if len(points) == 0 {
		return dataset.Candidate{
			Dataset:   dataset.Failed("no data series found in model output"),
			Narrative: strings.TrimSpace(text),
		}
	}
	logger.Debug("parsed %d points from plain text", len(points))
	return dataset.Candidate{Dataset: buildDataset(points), Narrative: narrative}
}

// ParseDataset is Parse without the narrative and chart type
func ParseDataset(text string) dataset.Dataset {
	return Parse(text).Dataset
}

func parseJSON(root gjson.Result) dataset.Candidate {
	c := dataset.Candidate{
		ChartType: firstString(root, chartTypePaths),
		Narrative: firstString(root, narrativePaths),
	}

	if success := root.Get("success"); success.Exists() && !success.Bool() {
		var errs []string
		root.Get("errors").ForEach(func(_, v gjson.Result) bool {
			errs = append(errs, v.String())
			return true
		})
		if len(errs) == 0 {
			errs = []string{"model reported that no data could be extracted"}
		}
		c.Dataset = dataset.Failed(errs...)
		return c
	}

	points, ok := seriesFrom(root)
	if !ok || len(points) == 0 {
		c.Dataset = dataset.Failed("no data series found in model output")
		return c
	}
	c.Dataset = buildDataset(points)
	return c
}

func seriesFrom(root gjson.Result) ([]rawPoint, bool) {
	if root.IsArray() {
		return pointsFromArray(root), true
	}

	// Chart.js shape: parallel labels and datasets[0].data
	if labels, data := root.Get("labels"), root.Get("datasets.0.data"); labels.IsArray() && data.IsArray() {
		ls, ds := labels.Array(), data.Array()
		points := make([]rawPoint, 0, len(ds))
		for i, d := range ds {
			label := ""
			if i < len(ls) {
				label = ls[i].String()
			}
			points = append(points, pointFromValue(label, d))
		}
		return points, true
	}

	for _, path := range seriesPaths {
		series := root.Get(path)
		switch {
		case series.IsArray():
			return pointsFromArray(series), true
		case series.IsObject():
			// {"Jan": 500, "Feb": 600} keeps key order
			var points []rawPoint
			series.ForEach(func(k, v gjson.Result) bool {
				points = append(points, pointFromValue(k.String(), v))
				return true
			})
			return points, true
		}
	}
	return nil, false
}

func pointsFromArray(arr gjson.Result) []rawPoint {
	var points []rawPoint
	arr.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.IsObject():
			points = append(points, pointFromValue(firstString(item, labelKeys), firstExisting(item, valueKeys)))
		case item.IsArray() && len(item.Array()) >= 2:
			pair := item.Array()
			points = append(points, pointFromValue(pair[0].String(), pair[1]))
		default:
			points = append(points, pointFromValue("", item))
		}
		return true
	})
	return points
}

func pointFromValue(label string, v gjson.Result) rawPoint {
	p := rawPoint{label: label, raw: v.String()}
	if v.Type == gjson.Number {
		n := v.Float()
		p.number = &n
		p.raw = v.Raw
	}
	return p
}

func firstString(r gjson.Result, paths []string) string {
	if v := firstExisting(r, paths); v.Exists() {
		return strings.TrimSpace(v.String())
	}
	return ""
}

func firstExisting(r gjson.Result, paths []string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// parseLines reads "Label: value" lines; everything else is narrative
func parseLines(text string) ([]rawPoint, string) {
	var points []rawPoint
	var prose []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if trimmed == "" {
			continue
		}
		idx := strings.LastIndexAny(trimmed, ":=")
		if idx > 0 && idx < len(trimmed)-1 {
			label := strings.TrimSpace(trimmed[:idx])
			raw := strings.TrimSpace(trimmed[idx+1:])
			if _, _, ok := ParseNumber(raw); ok && label != "" {
				points = append(points, rawPoint{label: label, raw: raw})
				continue
			}
		}
		prose = append(prose, trimmed)
	}
	return points, strings.Join(prose, " ")
}

// buildDataset converts raw points and reconciles their units. A single shared unit is kept
// as written and reported in DetectedUnit; mixed units are converted to base units.
func buildDataset(raws []rawPoint) dataset.Dataset {
	points := make([]dataset.DataPoint, len(raws))
	units := make([]dataset.Unit, len(raws))
	seen := map[dataset.Unit]bool{}

	for i, r := range raws {
		points[i] = dataset.DataPoint{Label: strings.TrimSpace(r.label), RawValue: r.raw}
		if r.number != nil {
			points[i].Value = *r.number
			points[i].RawValue = ""
			seen[""] = true
			continue
		}
		v, unit, ok := ParseNumber(r.raw)
		if !ok {
			return dataset.Failed(fmt.Sprintf("dataPoints[%d] value %q is not a number", i, r.raw))
		}
		points[i].Value = v
		units[i] = unit
		seen[unit] = true
	}

	ds := dataset.FromSeries(points)
	switch len(seen) {
	case 1:
		for u := range seen {
			if u != "" {
				unit := u
				ds.DetectedUnit = &unit
			}
		}
	default:
		for i := range ds.DataPoints {
			ds.DataPoints[i].Value *= units[i].Multiplier()
		}
		base := dataset.UnitBase
		ds.DetectedUnit = &base
		ds.Warnings = append(ds.Warnings, fmt.Sprintf(
			"Values were written in mixed units (%s) and were converted to base units", describeUnits(seen)))
		ds.RequiresConfirmation = true
	}
	return ds
}

func describeUnits(seen map[dataset.Unit]bool) string {
	names := make([]string, 0, len(seen))
	for u := range seen {
		if u == "" {
			names = append(names, "none")
			continue
		}
		names = append(names, string(u))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// FromStrings builds a dataset from label/value text pairs with the same unit handling as Parse
func FromStrings(labels, values []string) dataset.Dataset {
	if len(values) == 0 {
		return dataset.Failed("no data series found")
	}
	raws := make([]rawPoint, len(values))
	for i, v := range values {
		if i < len(labels) {
			raws[i].label = labels[i]
		}
		raws[i].raw = strings.TrimSpace(v)
	}
	return buildDataset(raws)
}
