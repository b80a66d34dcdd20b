package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"aigate/internal"
	"aigate/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDecisionLogRepository struct {
	mock.Mock
}

func (m *MockDecisionLogRepository) Record(ctx context.Context, entry *models.DecisionLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDecisionLogRepository) ListRecent(ctx context.Context, module string, limit int) ([]*models.DecisionLog, error) {
	args := m.Called(ctx, module, limit)
	return args.Get(0).([]*models.DecisionLog), args.Error(1)
}

func (m *MockDecisionLogRepository) Summary(ctx context.Context, since time.Time) ([]*models.DecisionSummary, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]*models.DecisionSummary), args.Error(1)
}

func quietMonitor(opts ...Option) *Monitor {
	opts = append([]Option{WithLogger(internal.NewLogger(internal.LogLevelError))}, opts...)
	return New(opts...)
}

func feed(m *Monitor, n int, valid bool) {
	for i := 0; i < n; i++ {
		m.Record(LogEntry{Module: models.ModuleChart, OutputValid: valid})
	}
}

func TestMonitor_StartsInactive(t *testing.T) {
	m := quietMonitor()

	assert.False(t, m.IsActive())
	assert.Equal(t, 0.0, m.CurrentErrorRate())
	assert.Empty(t, m.Entries(0))
}

func TestMonitor_NeedsMoreThanMinSamples(t *testing.T) {
	m := quietMonitor()

	feed(m, MinSamples, false)
	assert.False(t, m.IsActive(), "ten failures alone must not trip the switch")

	feed(m, 1, false)
	assert.True(t, m.IsActive())
}

func TestMonitor_KillSwitchHysteresis(t *testing.T) {
	m := quietMonitor()

	feed(m, 85, false)
	feed(m, 15, true)
	require.True(t, m.IsActive())

	// 100 samples halve the counters: 85/100 becomes 42/50
	status := m.Status()
	assert.Equal(t, 42, status.RecentErrors)
	assert.Equal(t, 50, status.RecentTotal)
	assert.InDelta(t, 0.84, status.ErrorRate, 1e-9)

	// 42/84 is exactly 0.5, which does not clear
	feed(m, 34, true)
	assert.True(t, m.IsActive())

	feed(m, 1, true)
	assert.False(t, m.IsActive())
	assert.Less(t, m.CurrentErrorRate(), ClearThreshold)
}

func TestMonitor_SixtyPercentNeverClears(t *testing.T) {
	m := quietMonitor()
	feed(m, 20, false)
	require.True(t, m.IsActive())

	for i := 0; i < 1000; i++ {
		m.Record(LogEntry{Module: models.ModuleChart, OutputValid: i%5 >= 3})
		require.True(t, m.IsActive(), "cleared after %d samples at rate %.3f", i+1, m.CurrentErrorRate())
	}
	assert.InDelta(t, 0.6, m.CurrentErrorRate(), 0.05)
}

func TestMonitor_RateBetweenThresholdsDoesNotTrip(t *testing.T) {
	m := quietMonitor()

	for i := 0; i < 500; i++ {
		m.Record(LogEntry{Module: models.ModuleChart, OutputValid: i%3 == 0})
	}
	assert.False(t, m.IsActive())
}

func TestMonitor_ManualOverride(t *testing.T) {
	m := quietMonitor()

	m.ManualOverride(true)
	assert.True(t, m.IsActive())
	feed(m, 50, true)
	assert.True(t, m.IsActive(), "override holds against a healthy error rate")
	assert.False(t, m.Status().AutoActive)

	m.ManualOverride(false)
	feed(m, 200, false)
	assert.False(t, m.IsActive(), "override holds against a failing error rate")
	assert.True(t, m.Status().AutoActive)

	m.ClearOverride()
	assert.True(t, m.IsActive())
	assert.Nil(t, m.Status().ManualOverride)
}

func TestMonitor_RingBufferNewestFirst(t *testing.T) {
	m := quietMonitor(WithCapacity(3))

	for i := 1; i <= 5; i++ {
		m.Record(LogEntry{Module: fmt.Sprintf("m%d", i), OutputValid: true})
	}

	entries := m.Entries(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "m5", entries[0].Module)
	assert.Equal(t, "m4", entries[1].Module)
	assert.Equal(t, "m3", entries[2].Module)

	limited := m.Entries(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "m5", limited[0].Module)

	status := m.Status()
	assert.Equal(t, 3, status.Buffered)
	assert.Equal(t, 5, status.RecentTotal)
}

func TestMonitor_RecordFillsAndTruncates(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := quietMonitor(WithUserInputMax(5), WithClock(func() time.Time { return fixed }))

	entry := m.Record(LogEntry{Module: models.ModuleReport, UserInput: "buatkan laporan penjualan"})

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, fixed, entry.Timestamp)
	assert.Equal(t, "buatk...", entry.UserInput)
	assert.NotNil(t, entry.Errors)
	assert.NotNil(t, entry.Warnings)
	assert.Equal(t, entry, m.Entries(1)[0])
}

func TestMonitor_ConcurrentRecord(t *testing.T) {
	m := quietMonitor(WithCapacity(1000))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Record(LogEntry{Module: models.ModuleChat, OutputValid: g%2 == 0})
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, m.Entries(0), 400)
	status := m.Status()
	assert.LessOrEqual(t, status.RecentTotal, DecayAt)
	assert.LessOrEqual(t, status.RecentErrors, status.RecentTotal)
}

func TestMonitor_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := quietMonitor(WithRegistry(reg))

	m.Record(LogEntry{Module: models.ModuleChart, OutputValid: true, ResponseTimeMs: 20})
	m.Record(LogEntry{Module: models.ModuleChart, OutputValid: false, ResponseTimeMs: 40})
	m.Record(LogEntry{Module: models.ModuleReport, OutputValid: false})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.decisions.WithLabelValues(models.ModuleChart, "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.decisions.WithLabelValues(models.ModuleChart, "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.decisions.WithLabelValues(models.ModuleReport, "invalid")))
	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(m.metrics.errorRate), 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.metrics.killSwitch))

	m.ManualOverride(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.killSwitch))

	expected := `
# HELP aigate_monitor_kill_switch_active 1 while callers must show fallback messages
# TYPE aigate_monitor_kill_switch_active gauge
aigate_monitor_kill_switch_active 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "aigate_monitor_kill_switch_active"))
}

func TestMonitor_PersistsAsynchronously(t *testing.T) {
	repo := &MockDecisionLogRepository{}
	repo.On("Record", mock.Anything, mock.MatchedBy(func(d *models.DecisionLog) bool {
		return d.Module == models.ModuleInsight && d.Errors == `["no data"]` && d.Warnings == `[]` && !d.OutputValid
	})).Return(nil).Once()

	m := quietMonitor(WithRepository(repo))
	m.Record(LogEntry{Module: models.ModuleInsight, Errors: []string{"no data"}})
	m.Flush()

	repo.AssertExpectations(t)
}

func TestMonitor_PersistRetriesThenGivesUp(t *testing.T) {
	reg := prometheus.NewRegistry()
	repo := &MockDecisionLogRepository{}
	repo.On("Record", mock.Anything, mock.Anything).Return(errors.New("database is locked")).Times(persistRetries)

	m := quietMonitor(WithRegistry(reg), WithRepository(repo))
	m.persister.baseDelay = time.Millisecond
	m.Record(LogEntry{Module: models.ModuleChart, OutputValid: true})
	m.Flush()

	repo.AssertNumberOfCalls(t, "Record", persistRetries)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.persistFailures))
}

func TestMonitor_PersistRecoversOnRetry(t *testing.T) {
	repo := &MockDecisionLogRepository{}
	repo.On("Record", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	repo.On("Record", mock.Anything, mock.Anything).Return(nil).Once()

	m := quietMonitor(WithRepository(repo))
	m.persister.baseDelay = time.Millisecond
	m.Record(LogEntry{Module: models.ModuleChart, OutputValid: true})
	m.Flush()

	repo.AssertNumberOfCalls(t, "Record", 2)
}

func TestDecisionLogRoundTrip(t *testing.T) {
	entry := LogEntry{
		ID:             uuid.New(),
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Module:         models.ModuleChart,
		UserInput:      "grafik omzet",
		Errors:         []string{},
		Warnings:       []string{"Duplicate label \"Jan\""},
		ResponseTimeMs: 12,
		ChartType:      "line",
		DataPointCount: 4,
	}

	record, err := ToDecisionLog(entry)
	require.NoError(t, err)
	assert.Equal(t, entry, FromDecisionLog(record))
}

func TestFallbackMessage(t *testing.T) {
	m := quietMonitor()

	for _, module := range []string{models.ModuleChat, models.ModuleChart, models.ModuleReport, models.ModuleLetter, models.ModuleInsight} {
		msg := m.FallbackMessage(module)
		assert.NotEmpty(t, msg)
		assert.NotEqual(t, DefaultFallback, msg, module)
	}
	assert.Equal(t, DefaultFallback, FallbackMessage("spreadsheet"))
}
