package monitor

import (
	"sync"
	"time"
	"unicode/utf8"

	"aigate/internal"
	"aigate/ports"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Kill-switch policy
const (
	// TripThreshold activates the switch when the rolling error rate reaches it
	TripThreshold = 0.8
	// ClearThreshold deactivates the switch once the rolling error rate drops below it
	ClearThreshold = 0.5
	// MinSamples is the sample count the rate must exceed before it is acted on
	MinSamples = 10
	// DecayAt halves both rolling counters when recentTotal reaches it
	DecayAt = 100

	DefaultCapacity     = 500
	DefaultUserInputMax = 200
)

// LogEntry is one gate decision as seen by the monitor
type LogEntry struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Module         string    `json:"module"`
	UserInput      string    `json:"userInput"`
	OutputValid    bool      `json:"outputValid"`
	Errors         []string  `json:"errors"`
	Warnings       []string  `json:"warnings"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	Confidence     string    `json:"confidence,omitempty"`
	ChartType      string    `json:"chartType,omitempty"`
	DataPointCount int       `json:"dataPointCount,omitempty"`
}

// Status is a point-in-time view of the monitor
type Status struct {
	Active         bool    `json:"active"`
	AutoActive     bool    `json:"autoActive"`
	ManualOverride *bool   `json:"manualOverride,omitempty"`
	ErrorRate      float64 `json:"errorRate"`
	RecentErrors   int     `json:"recentErrors"`
	RecentTotal    int     `json:"recentTotal"`
	TripThreshold  float64 `json:"tripThreshold"`
	ClearThreshold float64 `json:"clearThreshold"`
	Buffered       int     `json:"buffered"`
	Capacity       int     `json:"capacity"`
}

// Option configures a Monitor
type Option func(*Monitor)

// WithCapacity bounds the in-memory ring buffer
func WithCapacity(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithUserInputMax bounds the stored length of LogEntry.UserInput, in runes
func WithUserInputMax(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.inputMax = n
		}
	}
}

// WithRegistry exports the monitor metrics on reg
func WithRegistry(reg prometheus.Registerer) Option {
	return func(m *Monitor) {
		m.metrics = NewMetrics(reg)
	}
}

// WithRepository persists every recorded entry asynchronously
func WithRepository(repo ports.DecisionLogRepository) Option {
	return func(m *Monitor) {
		if repo != nil {
			m.persister = newPersister(repo)
		}
	}
}

// WithClock replaces time.Now for entries recorded without a timestamp
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger replaces the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor tracks model-output health and owns the kill switch.
// All methods are safe for concurrent use.
type Monitor struct {
	mu sync.RWMutex

	// ring buffer, newest at entries[(head-1) mod capacity]
	entries []LogEntry
	head    int
	size    int

	recentErrors int
	recentTotal  int
	active       bool
	override     *bool

	capacity  int
	inputMax  int
	now       func() time.Time
	metrics   *Metrics
	persister *persister
	logger    *internal.Logger
}

// New creates an inactive monitor
func New(opts ...Option) *Monitor {
	m := &Monitor{
		capacity: DefaultCapacity,
		inputMax: DefaultUserInputMax,
		now:      time.Now,
		logger:   internal.DefaultLogger.With("Monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entries = make([]LogEntry, m.capacity)
	if m.persister != nil {
		m.persister.metrics = m.metrics
		m.persister.logger = m.logger
	}
	return m
}

// Record stores entry, updates the rolling error rate and applies the kill-switch
// transitions. It never blocks on persistence.
func (m *Monitor) Record(entry LogEntry) LogEntry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}
	entry.UserInput = truncate(entry.UserInput, m.inputMax)
	if entry.Errors == nil {
		entry.Errors = []string{}
	}
	if entry.Warnings == nil {
		entry.Warnings = []string{}
	}

	m.mu.Lock()
	m.entries[m.head] = entry
	m.head = (m.head + 1) % m.capacity
	if m.size < m.capacity {
		m.size++
	}

	m.recentTotal++
	if !entry.OutputValid {
		m.recentErrors++
	}
	if m.recentTotal >= DecayAt {
		m.recentTotal /= 2
		m.recentErrors /= 2
	}

	wasActive := m.active
	rate := m.rateLocked()
	if m.recentTotal > MinSamples {
		switch {
		case !m.active && rate >= TripThreshold:
			m.active = true
		case m.active && rate < ClearThreshold:
			m.active = false
		}
	}
	autoActive, total := m.active, m.recentTotal
	active := m.isActiveLocked()
	m.mu.Unlock()

	if wasActive != autoActive {
		if autoActive {
			m.logger.Error("kill switch tripped: error rate %.2f over %d recent samples", rate, total)
		} else {
			m.logger.Info("kill switch cleared: error rate %.2f", rate)
		}
	}

	m.metrics.observe(entry, rate, active)
	if m.persister != nil {
		m.persister.persist(entry)
	}
	return entry
}

func (m *Monitor) rateLocked() float64 {
	if m.recentTotal == 0 {
		return 0
	}
	return float64(m.recentErrors) / float64(m.recentTotal)
}

func (m *Monitor) isActiveLocked() bool {
	if m.override != nil {
		return *m.override
	}
	return m.active
}

// IsActive reports whether callers must show the fallback message instead of rendering
func (m *Monitor) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isActiveLocked()
}

// ManualOverride forces the switch on or off until ClearOverride is called
func (m *Monitor) ManualOverride(active bool) {
	m.mu.Lock()
	m.override = &active
	m.mu.Unlock()

	m.logger.Warn("kill switch manually forced %s", onOff(active))
	m.metrics.setKillSwitch(active)
}

// ClearOverride hands the switch back to the automatic error-rate computation
func (m *Monitor) ClearOverride() {
	m.mu.Lock()
	m.override = nil
	active := m.active
	m.mu.Unlock()

	m.logger.Info("kill switch override cleared, automatic state is %s", onOff(active))
	m.metrics.setKillSwitch(active)
}

// CurrentErrorRate is recentErrors/recentTotal, 0 before any sample
func (m *Monitor) CurrentErrorRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rateLocked()
}

// Status returns the switch state with the counters behind it
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		Active:         m.isActiveLocked(),
		AutoActive:     m.active,
		ErrorRate:      m.rateLocked(),
		RecentErrors:   m.recentErrors,
		RecentTotal:    m.recentTotal,
		TripThreshold:  TripThreshold,
		ClearThreshold: ClearThreshold,
		Buffered:       m.size,
		Capacity:       m.capacity,
	}
	if m.override != nil {
		v := *m.override
		s.ManualOverride = &v
	}
	return s
}

// Entries returns up to limit buffered entries, newest first. limit <= 0 returns all.
func (m *Monitor) Entries(limit int) []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEntry, n)
	for i := 0; i < n; i++ {
		idx := (m.head - 1 - i + m.capacity) % m.capacity
		out[i] = m.entries[idx]
	}
	return out
}

// Flush waits for pending persistence to finish
func (m *Monitor) Flush() {
	if m.persister != nil {
		m.persister.wait()
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

func onOff(active bool) string {
	if active {
		return "on"
	}
	return "off"
}
