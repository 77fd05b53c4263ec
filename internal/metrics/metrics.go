package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"traffic-worker-go/internal/models"
)

// Metrics holds worker counters exported to Prometheus
type Metrics struct {
	// Frame processing
	FramesRead      atomic.Uint64
	FramesAnalyzed  atomic.Uint64
	PerceptionError atomic.Uint64

	// Recorder
	RecordsWritten  atomic.Uint64
	SnapshotErrors  atomic.Uint64
	ChallanErrors   atomic.Uint64
	StoreErrors     atomic.Uint64
	RecorderInlined atomic.Uint64

	// Resets
	HistoryResets atomic.Uint64

	violations *prometheus.CounterVec
	registry   *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traffic_violations_confirmed_total",
			Help: "Confirmed violations by kind",
		}, []string{"kind"}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.violations)

	gauges := []struct {
		name string
		help string
		v    *atomic.Uint64
	}{
		{"traffic_frames_read_total", "Total frames read from video feeds", &m.FramesRead},
		{"traffic_frames_analyzed_total", "Total frames sent to perception", &m.FramesAnalyzed},
		{"traffic_perception_errors_total", "Total failed perception calls", &m.PerceptionError},
		{"traffic_records_written_total", "Total violation records appended", &m.RecordsWritten},
		{"traffic_snapshot_errors_total", "Total failed evidence captures", &m.SnapshotErrors},
		{"traffic_challan_errors_total", "Total failed challan renders", &m.ChallanErrors},
		{"traffic_store_errors_total", "Total failed store appends", &m.StoreErrors},
		{"traffic_recorder_inline_total", "Violations recorded inline because the queue was full", &m.RecorderInlined},
		{"traffic_history_resets_total", "Total history resets", &m.HistoryResets},
	}
	for _, g := range gauges {
		v := g.v
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(v.Load()) },
		))
	}
}

// ViolationConfirmed counts a confirmed violation.
func (m *Metrics) ViolationConfirmed(kind models.ViolationKind) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(string(kind)).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
