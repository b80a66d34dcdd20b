package report

import (
	"strings"
	"testing"

	"aigate/domain/dataset"
	"aigate/internal/trend"
	"aigate/internal/validation"

	"github.com/stretchr/testify/assert"
)

func growthInput() Input {
	series := []dataset.DataPoint{
		{Label: "Jan", Value: 500},
		{Label: "Feb", Value: 600},
		{Label: "Mar", Value: 750},
		{Label: "Apr", Value: 900},
	}
	engine := trend.NewEngine()
	analysis := engine.Analyze(series)
	return Input{
		Title:    "Revenue Q1",
		Series:   series,
		Analysis: analysis,
		Insight:  engine.GenerateInsightFrom(trend.InsightInput{Series: series}, analysis),
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(growthInput())

	assert.True(t, strings.HasPrefix(md, "# Revenue Q1\n"))
	assert.Contains(t, md, "Revenue grew 80.0%")
	assert.Contains(t, md, "| Feb | 600 | +20.0% |")
	assert.Contains(t, md, "- Direction: **up**")
	assert.Contains(t, md, "- High: 900 (Apr)")
	assert.Contains(t, md, "## Outlook")
	assert.NotContains(t, md, "## Alerts")
	assert.NotContains(t, md, "## Data quality")
}

func TestMarkdown_DataQuality(t *testing.T) {
	in := growthInput()
	v := validation.NewGate(nil).Validate(dataset.FromSeries([]dataset.DataPoint{
		{Label: "Jan", Value: 500}, {Label: "Feb", Value: 600}, {Label: "Mar", Value: 50000}, {Label: "Apr", Value: 800},
	}), "")
	in.Verdict = &v

	md := Markdown(in)
	assert.Contains(t, md, "- Status: awaiting user confirmation")
	assert.Contains(t, md, `- Warning: Outlier at "Mar"`)

	confirmed := validation.Confirm(v)
	in.Verdict = &confirmed
	assert.Contains(t, Markdown(in), "- Status: confirmed by the user")
}

func TestMarkdown_EscapesModelText(t *testing.T) {
	in := growthInput()
	in.Series[0].Label = "Jan | <script>"

	md := Markdown(in)
	assert.Contains(t, md, `Jan \| &lt;script&gt;`)
}

func TestHTML(t *testing.T) {
	out := string(HTML(growthInput()))

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Revenue Q1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>up</strong>")
	assert.NotContains(t, out, "<script>")
}
