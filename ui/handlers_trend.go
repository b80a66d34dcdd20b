package ui

import (
	"net/http"
	"strings"

	"aigate/internal/errors"
	"aigate/internal/report"
	"aigate/internal/trend"
)

type reportRequest struct {
	Title string `json:"title,omitempty"`
	trend.InsightInput
	// Format is "markdown" (default) or "html"
	Format string `json:"format,omitempty"`
}

func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var input trend.InsightInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	if len(input.Series) == 0 {
		writeError(w, errors.InvalidInput("series must not be empty"))
		return
	}
	input.Context = trend.ParseContext(string(input.Context))

	analysis, insight, verdict := a.gatekeeper.Analyze(input)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis": analysis,
		"insight":  insight,
		"verdict":  verdict,
	})
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Series) == 0 {
		writeError(w, errors.InvalidInput("series must not be empty"))
		return
	}
	req.Context = trend.ParseContext(string(req.Context))

	md := a.gatekeeper.Report(req.Title, req.InsightInput)

	switch strings.ToLower(req.Format) {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(md))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(report.ToHTML(md))
	default:
		writeError(w, errors.InvalidInput("format must be markdown or html"))
	}
}
