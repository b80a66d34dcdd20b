package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"aigate/internal"
	"aigate/models"
	"aigate/ports"
)

const (
	persistRetries   = 3
	persistBaseDelay = 100 * time.Millisecond
	persistTimeout   = 5 * time.Second
)

// persister writes entries to the decision log off the request path
type persister struct {
	repo      ports.DecisionLogRepository
	baseDelay time.Duration
	metrics   *Metrics
	logger    *internal.Logger
	wg        sync.WaitGroup
}

func newPersister(repo ports.DecisionLogRepository) *persister {
	return &persister{repo: repo, baseDelay: persistBaseDelay, logger: internal.DefaultLogger.With("Monitor")}
}

func (p *persister) persist(entry LogEntry) {
	record, err := ToDecisionLog(entry)
	if err != nil {
		p.logger.Error("failed to encode decision %s: %v", entry.ID, err)
		return
	}

	// Async persistence so Record never waits on the database
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.persistWithRetry(record); err != nil {
			p.logger.Error("failed to persist decision %s after retries: %v", record.ID, err)
			if p.metrics != nil {
				p.metrics.persistFailures.Inc()
			}
		}
	}()
}

// persistWithRetry attempts to persist the record with linear backoff
func (p *persister) persistWithRetry(record *models.DecisionLog) error {
	var err error
	for attempt := 0; attempt < persistRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err = p.repo.Record(ctx, record)
		cancel()
		if err == nil {
			return nil
		}

		if attempt < persistRetries-1 {
			time.Sleep(time.Duration(attempt+1) * p.baseDelay)
		}
	}
	return err
}

func (p *persister) wait() {
	p.wg.Wait()
}

// ToDecisionLog converts an entry to its persisted form
func ToDecisionLog(e LogEntry) (*models.DecisionLog, error) {
	errs, err := json.Marshal(nonNil(e.Errors))
	if err != nil {
		return nil, err
	}
	warnings, err := json.Marshal(nonNil(e.Warnings))
	if err != nil {
		return nil, err
	}
	return &models.DecisionLog{
		ID:             e.ID,
		Module:         e.Module,
		UserInput:      e.UserInput,
		OutputValid:    e.OutputValid,
		Errors:         string(errs),
		Warnings:       string(warnings),
		ResponseTimeMs: e.ResponseTimeMs,
		Confidence:     e.Confidence,
		ChartType:      e.ChartType,
		DataPointCount: e.DataPointCount,
		CreatedAt:      e.Timestamp,
	}, nil
}

// FromDecisionLog converts a persisted decision back to an entry
func FromDecisionLog(d *models.DecisionLog) LogEntry {
	e := LogEntry{
		ID:             d.ID,
		Timestamp:      d.CreatedAt,
		Module:         d.Module,
		UserInput:      d.UserInput,
		OutputValid:    d.OutputValid,
		ResponseTimeMs: d.ResponseTimeMs,
		Confidence:     d.Confidence,
		ChartType:      d.ChartType,
		DataPointCount: d.DataPointCount,
	}
	// tolerate rows written by hand
	_ = json.Unmarshal([]byte(d.Errors), &e.Errors)
	_ = json.Unmarshal([]byte(d.Warnings), &e.Warnings)
	e.Errors = nonNil(e.Errors)
	e.Warnings = nonNil(e.Warnings)
	return e
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
