package report

import (
	"fmt"
	"strconv"
	"strings"

	"aigate/domain/dataset"
	"aigate/internal/trend"
	"aigate/internal/validation"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Input is everything a trend report is built from
type Input struct {
	Title    string
	Series   []dataset.DataPoint
	Analysis trend.TrendAnalysis
	Insight  trend.GeneratedInsight
	// Verdict is optional; when set the report ends with a data quality section
	Verdict *validation.Verdict
}

// Markdown renders the report as Markdown
func Markdown(in Input) string {
	var b strings.Builder

	title := in.Title
	if title == "" {
		title = "Trend report"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "%s\n\n", escape(in.Insight.Summary))

	if len(in.Series) > 0 {
		b.WriteString("| Period | Value | Change |\n|---|---:|---:|\n")
		for i, p := range in.Series {
			change := ""
			if i > 0 {
				change = fmt.Sprintf("%+.1f%%", trend.SafePercentageChange(p.Value, in.Series[i-1].Value))
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escape(p.Label), number(p.Value), change)
		}
		b.WriteString("\n")
	}

	a := in.Analysis
	b.WriteString("## Trend facts\n\n")
	fmt.Fprintf(&b, "- Direction: **%s**\n", a.Direction)
	fmt.Fprintf(&b, "- Overall change: %+.1f%%\n", a.OverallChangePct)
	fmt.Fprintf(&b, "- Average change per period: %+.1f%%\n", a.AvgPeriodGrowthPct)
	fmt.Fprintf(&b, "- Consistency: %.2f\n", a.Consistency)
	if a.HighPoint.Index >= 0 {
		fmt.Fprintf(&b, "- High: %s (%s)\n", number(a.HighPoint.Value), escape(a.HighPoint.Label))
		fmt.Fprintf(&b, "- Low: %s (%s)\n", number(a.LowPoint.Value), escape(a.LowPoint.Label))
	}
	fmt.Fprintf(&b, "- Last period: %+.1f%%\n", a.LastPeriodChangePct)
	fmt.Fprintf(&b, "- Confidence: %s\n\n", in.Insight.Confidence)

	fmt.Fprintf(&b, "## Recommendation\n\n%s\n\n", escape(in.Insight.Recommendation))

	if in.Insight.Prediction != "" {
		fmt.Fprintf(&b, "## Outlook\n\n%s\n\n", escape(in.Insight.Prediction))
	}

	if len(in.Insight.Alerts) > 0 {
		b.WriteString("## Alerts\n\n")
		for _, alert := range in.Insight.Alerts {
			fmt.Fprintf(&b, "- %s\n", escape(alert))
		}
		b.WriteString("\n")
	}

	if v := in.Verdict; v != nil {
		b.WriteString("## Data quality\n\n")
		fmt.Fprintf(&b, "- Status: %s\n", verdictStatus(*v))
		for _, e := range v.Errors {
			fmt.Fprintf(&b, "- Error: %s\n", escape(e))
		}
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "- Warning: %s\n", escape(w))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the report as an HTML fragment
func HTML(in Input) []byte {
	return ToHTML(Markdown(in))
}

// ToHTML converts report Markdown to HTML
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func verdictStatus(v validation.Verdict) string {
	switch {
	case v.SemanticValid && v.RequiresConfirmation && !v.Confirmed:
		return "awaiting user confirmation"
	case v.Confirmed:
		return "confirmed by the user"
	case v.Passed:
		return "passed all checks"
	case v.CanRender:
		return "data verified, narrative needs review"
	default:
		return fmt.Sprintf("rejected at the %s stage", v.Stage)
	}
}

func number(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return mdEscaper.Replace(s)
}
