package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus series exported by a Monitor
type Metrics struct {
	// decisions counts recorded entries.
	// Labels: module, outcome (valid, invalid)
	decisions *prometheus.CounterVec

	// responseTime measures end-to-end gate latency.
	// Labels: module
	responseTime *prometheus.HistogramVec

	errorRate  prometheus.Gauge
	killSwitch prometheus.Gauge

	// persistFailures counts entries dropped after all persistence retries
	persistFailures prometheus.Counter
}

// NewMetrics registers the monitor metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aigate",
			Subsystem: "monitor",
			Name:      "decisions_total",
			Help:      "Gate decisions recorded by module and outcome",
		}, []string{"module", "outcome"}),
		responseTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aigate",
			Subsystem: "monitor",
			Name:      "response_time_seconds",
			Help:      "End-to-end gate response time in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"module"}),
		errorRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "aigate",
			Subsystem: "monitor",
			Name:      "error_rate",
			Help:      "Rolling share of invalid model outputs",
		}),
		killSwitch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "aigate",
			Subsystem: "monitor",
			Name:      "kill_switch_active",
			Help:      "1 while callers must show fallback messages",
		}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "aigate",
			Subsystem: "monitor",
			Name:      "persist_failures_total",
			Help:      "Decision log entries dropped after persistence retries",
		}),
	}
}

func (m *Metrics) observe(e LogEntry, errorRate float64, active bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !e.OutputValid {
		outcome = "invalid"
	}
	m.decisions.WithLabelValues(e.Module, outcome).Inc()
	m.responseTime.WithLabelValues(e.Module).Observe(float64(e.ResponseTimeMs) / 1000)
	m.errorRate.Set(errorRate)
	m.setKillSwitch(active)
}

func (m *Metrics) setKillSwitch(active bool) {
	if m == nil {
		return
	}
	if active {
		m.killSwitch.Set(1)
	} else {
		m.killSwitch.Set(0)
	}
}
