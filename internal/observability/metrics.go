package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	Turns          *prometheus.CounterVec
	AnalysisRuns   prometheus.Counter
	ProviderErrors *prometheus.CounterVec
	TurnLatency    prometheus.Histogram

	window *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live mirror sessions.",
		}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by outcome.",
		}, []string{"outcome"}),
		AnalysisRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Personality analysis passes over the message window.",
		}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Full turn latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000},
		}),
		window: newTurnStageWindow(256),
	}
}

// ObserveTurnLatency records a completed turn in both the histogram and the
// rolling perf window.
func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	ms := float64(d.Milliseconds())
	m.TurnLatency.Observe(ms)
	m.window.Observe(stageTurnTotal, ms)
}

// ObserveStage records one intra-turn stage duration in the perf window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if stage == StageAnalysis {
		m.AnalysisRuns.Inc()
	}
	m.window.Observe(stage, float64(d.Milliseconds()))
}

// CountIndicator bumps a named occurrence counter in the perf window.
func (m *Metrics) CountIndicator(name string) {
	m.window.ObserveIndicator(name)
}

// PerfSnapshot summarizes the rolling latency window for the perf endpoint.
func (m *Metrics) PerfSnapshot() TurnStageSnapshot {
	return m.window.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
