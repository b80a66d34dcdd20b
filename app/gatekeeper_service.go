package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"aigate/domain/dataset"
	"aigate/internal"
	"aigate/internal/cache"
	"aigate/internal/errors"
	"aigate/internal/extract"
	"aigate/internal/monitor"
	"aigate/internal/report"
	"aigate/internal/trend"
	"aigate/internal/validation"
	"aigate/models"
	"aigate/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Request is one piece of model output to be checked before rendering
type Request struct {
	Module    string `json:"module"`
	UserInput string `json:"userInput,omitempty"`
	// ModelOutput is raw model text; ignored when Dataset is set
	ModelOutput string           `json:"modelOutput,omitempty"`
	Dataset     *dataset.Dataset `json:"dataset,omitempty"`
	// Narrative overrides the narrative found in ModelOutput
	Narrative string        `json:"narrative,omitempty"`
	Context   trend.Context `json:"context,omitempty"`
	Metric    string        `json:"metric,omitempty"`
	// GenerateInsight writes a narrative from the data when none was supplied
	GenerateInsight bool `json:"generateInsight,omitempty"`
}

// Response is the gate decision plus everything the renderer needs
type Response struct {
	Verdict   validation.Verdict       `json:"verdict"`
	Dataset   dataset.Dataset          `json:"dataset"`
	Narrative string                   `json:"narrative,omitempty"`
	ChartType string                   `json:"chartType,omitempty"`
	Analysis  *trend.TrendAnalysis     `json:"analysis,omitempty"`
	Insight   *trend.GeneratedInsight  `json:"insight,omitempty"`
	// CanRender is the verdict's CanRender with the kill switch applied
	CanRender        bool          `json:"canRender"`
	KillSwitchActive bool          `json:"killSwitchActive"`
	Fallback         string        `json:"fallback,omitempty"`
	LogID            uuid.UUID     `json:"logId"`
	CacheOutcome     cache.Outcome `json:"cacheOutcome,omitempty"`
}

// Err is the error a caller that cannot show a fallback should surface: KILL_SWITCH_ACTIVE
// while the switch is on, otherwise the verdict's fatal failure, if any
func (r *Response) Err(module string) error {
	if r.KillSwitchActive {
		return errors.KillSwitch(module)
	}
	return r.Verdict.Err()
}

// BatchResult is one slot of ProcessBatch, in request order
type BatchResult struct {
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// StatusReport is the operator view of the pipeline
type StatusReport struct {
	Monitor   monitor.Status            `json:"monitor"`
	Cache     cache.Stats               `json:"cache"`
	Decisions []*models.DecisionSummary `json:"decisions,omitempty"`
}

// ServiceConfig holds the pipeline tunables
type ServiceConfig struct {
	TTLFresh         time.Duration
	TTLStale         time.Duration
	RateLimitGrace   time.Duration
	BatchConcurrency int
}

// GatekeeperService runs model output through parse -> trend -> gate -> monitor
type GatekeeperService struct {
	engine  *trend.Engine
	gate    *validation.Gate
	monitor *monitor.Monitor
	cache   *cache.RequestCache[string]
	repo    ports.DecisionLogRepository
	cfg     ServiceConfig
	logger  *internal.Logger
}

// NewGatekeeperService wires the pipeline. repo may be nil when decisions are not persisted.
func NewGatekeeperService(engine *trend.Engine, gate *validation.Gate, mon *monitor.Monitor, rc *cache.RequestCache[string], repo ports.DecisionLogRepository, cfg ServiceConfig) *GatekeeperService {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.TTLStale < cfg.TTLFresh {
		cfg.TTLStale = cfg.TTLFresh
	}
	return &GatekeeperService{
		engine:  engine,
		gate:    gate,
		monitor: mon,
		cache:   rc,
		repo:    repo,
		cfg:     cfg,
		logger:  internal.DefaultLogger.With("Gatekeeper"),
	}
}

// Process validates one request and records the outcome. The returned error is reserved for
// unusable requests; rejected model output is reported in the verdict.
func (s *GatekeeperService) Process(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Dataset == nil && strings.TrimSpace(req.ModelOutput) == "" {
		return nil, errors.InvalidInput("either modelOutput or dataset is required")
	}
	if req.Module == "" {
		req.Module = models.ModuleChart
	}

	start := time.Now()

	var candidate dataset.Candidate
	if req.Dataset != nil {
		candidate = dataset.Candidate{Dataset: *req.Dataset}
	} else {
		candidate = extract.Parse(req.ModelOutput)
	}
	if req.Narrative != "" {
		candidate.Narrative = req.Narrative
	}

	resp := &Response{
		Dataset:   candidate.Dataset,
		Narrative: candidate.Narrative,
		ChartType: candidate.ChartType,
	}

	var analysis *trend.TrendAnalysis
	if candidate.Dataset.Success && len(candidate.Dataset.DataPoints) > 0 {
		a := s.engine.Analyze(candidate.Dataset.DataPoints)
		analysis = &a
		resp.Analysis = analysis

		if resp.Narrative == "" && req.GenerateInsight && len(candidate.Dataset.DataPoints) >= 2 {
			insight := s.engine.GenerateInsightFrom(trend.InsightInput{
				Series:  candidate.Dataset.DataPoints,
				Context: req.Context,
				Metric:  req.Metric,
			}, a)
			resp.Insight = &insight
			resp.Narrative = insight.Narrative()
		}
	}

	resp.Verdict = s.gate.ValidateWithAnalysis(candidate.Dataset, resp.Narrative, analysis)

	entry := monitor.LogEntry{
		Module:         req.Module,
		UserInput:      req.UserInput,
		OutputValid:    resp.Verdict.Passed,
		Errors:         resp.Verdict.Errors,
		Warnings:       resp.Verdict.Warnings,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		ChartType:      resp.ChartType,
		DataPointCount: len(candidate.Dataset.DataPoints),
	}
	if resp.Insight != nil {
		entry.Confidence = string(resp.Insight.Confidence)
	}
	resp.LogID = s.monitor.Record(entry).ID

	resp.CanRender = resp.Verdict.CanRender
	if s.monitor.IsActive() {
		resp.KillSwitchActive = true
		resp.CanRender = false
		resp.Fallback = s.monitor.FallbackMessage(req.Module)
		s.logger.Warn("kill switch active, serving fallback for module %s", req.Module)
	}

	s.logger.Debug("module=%s stage=%s passed=%t canRender=%t points=%d",
		req.Module, resp.Verdict.Stage, resp.Verdict.Passed, resp.CanRender, entry.DataPointCount)
	return resp, nil
}

// ProcessCached obtains the model output for key through the request cache, then processes it.
// Concurrent calls for the same key share one producer call.
func (s *GatekeeperService) ProcessCached(ctx context.Context, key string, producer cache.Producer[string], req Request) (*Response, error) {
	res, err := s.cache.Fetch(ctx, key, cache.FetchOptions{
		TTLFresh:       s.cfg.TTLFresh,
		TTLStale:       s.cfg.TTLStale,
		IsRateLimited:  IsRateLimitError,
		RateLimitGrace: s.cfg.RateLimitGrace,
	}, producer)
	if err != nil {
		return nil, err
	}
	if res.Outcome == cache.OutcomeStaleFallback {
		s.logger.Warn("serving stale model output for %s: %v", key, res.FallbackCause)
	}

	req.ModelOutput = res.Value
	req.Dataset = nil
	resp, err := s.Process(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.CacheOutcome = res.Outcome
	return resp, nil
}

// ProcessBatch processes requests with bounded concurrency. Results keep request order and a
// failed request does not stop the others.
func (s *GatekeeperService) ProcessBatch(ctx context.Context, reqs []Request) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := s.Process(gCtx, req)
			if err != nil {
				results[i].Error = err.Error()
				// only cancellation aborts the batch
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			results[i].Response = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Confirm re-validates ds and applies the user's acknowledgement of its warnings.
// Verdicts are recomputed rather than trusted from the client.
func (s *GatekeeperService) Confirm(ds dataset.Dataset, narrative string) validation.Verdict {
	return validation.Confirm(s.gate.Validate(ds, narrative))
}

// Analyze computes trend facts and the insight for a series, and checks the insight against it
func (s *GatekeeperService) Analyze(input trend.InsightInput) (trend.TrendAnalysis, trend.GeneratedInsight, validation.Verdict) {
	analysis := s.engine.Analyze(input.Series)
	insight := s.engine.GenerateInsightFrom(input, analysis)
	verdict := s.gate.ValidateWithAnalysis(dataset.FromSeries(input.Series), insight.Narrative(), &analysis)
	return analysis, insight, verdict
}

// Report renders the analysis of a series as Markdown
func (s *GatekeeperService) Report(title string, input trend.InsightInput) string {
	analysis, insight, verdict := s.Analyze(input)
	return report.Markdown(report.Input{
		Title:    title,
		Series:   input.Series,
		Analysis: analysis,
		Insight:  insight,
		Verdict:  &verdict,
	})
}

// Status reports monitor and cache state, plus persisted decision totals for the last day
func (s *GatekeeperService) Status(ctx context.Context) StatusReport {
	status := StatusReport{
		Monitor: s.monitor.Status(),
		Cache:   s.cache.Stats(),
	}
	if s.repo != nil {
		summaries, err := s.repo.Summary(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			s.logger.Warn("failed to load decision summary: %v", err)
		} else {
			status.Decisions = summaries
		}
	}
	return status
}

// Logs returns recent decisions, newest first. Persisted decisions are preferred when available.
func (s *GatekeeperService) Logs(ctx context.Context, module string, limit int) ([]monitor.LogEntry, error) {
	if s.repo != nil {
		records, err := s.repo.ListRecent(ctx, module, limit)
		if err != nil {
			return nil, errors.DatabaseError("failed to list decisions", err)
		}
		entries := make([]monitor.LogEntry, len(records))
		for i, r := range records {
			entries[i] = monitor.FromDecisionLog(r)
		}
		return entries, nil
	}

	all := s.monitor.Entries(0)
	entries := make([]monitor.LogEntry, 0, len(all))
	for _, e := range all {
		if module != "" && e.Module != module {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// SetKillSwitch forces the kill switch on or off
func (s *GatekeeperService) SetKillSwitch(active bool) monitor.Status {
	s.monitor.ManualOverride(active)
	return s.monitor.Status()
}

// ClearKillSwitch returns the kill switch to automatic control
func (s *GatekeeperService) ClearKillSwitch() monitor.Status {
	s.monitor.ClearOverride()
	return s.monitor.Status()
}

// Monitor exposes the production monitor
func (s *GatekeeperService) Monitor() *monitor.Monitor {
	return s.monitor
}

// IsRateLimitError classifies upstream errors that should bias the cache toward stale values
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsRateLimited(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// ModuleKey scopes a cache key to a module and user input
func ModuleKey(module, input string) string {
	h := fnv.New64a()
	h.Write([]byte(input))
	return cache.Key(module, fmt.Sprintf("%x", h.Sum64()))
}
