package convert

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes counted by Metrics.Records
const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics counts exports and record outcomes. One Metrics can be shared by
// concurrent exports.
type Metrics struct {
	Exports  *prometheus.CounterVec
	Records  *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers the exporter's collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsgeojson",
			Name:      "exports_total",
			Help:      "GeoJSON exports run, by geometry mode.",
		}, []string{"mode"}),
		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsgeojson",
			Name:      "records_total",
			Help:      "Time series records processed, by outcome.",
		}, []string{"outcome"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tsgeojson",
			Name:      "export_duration_seconds",
			Help:      "Wall time of one export.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) record(outcome string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(outcome).Inc()
}

func (m *Metrics) export(mode GeometryMode, seconds float64) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(mode.String()).Inc()
	m.Duration.Observe(seconds)
}
