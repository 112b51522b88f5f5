package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics holds the pipeline counters. A nil *IngestMetrics is valid and records nothing.
type IngestMetrics struct {
	FetchTotal          *prometheus.CounterVec
	RowsPersistedTotal  *prometheus.CounterVec
	PersistFailureTotal *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	Watermark           prometheus.Gauge
	FetchDuration       prometheus.Histogram
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbrrates_fetch_total",
				Help: "Daily table fetches by outcome (ok or the fetch error kind)",
			},
			[]string{"outcome"},
		),
		RowsPersistedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbrrates_rows_persisted_total",
				Help: "Rate rows appended, by sink",
			},
			[]string{"sink"},
		),
		PersistFailureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbrrates_persist_failures_total",
				Help: "Failed persistence calls, by sink",
			},
			[]string{"sink"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbrrates_runs_total",
				Help: "Pipeline runs by mode and result",
			},
			[]string{"mode", "result"},
		),
		Watermark: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cbrrates_watermark_timestamp_seconds",
			Help: "Last loaded date resolved at the start of the latest incremental run",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cbrrates_fetch_duration_seconds",
			Help:    "Duration of one daily table fetch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 9),
		}),
	}
	reg.MustRegister(m.FetchTotal, m.RowsPersistedTotal, m.PersistFailureTotal, m.RunsTotal, m.Watermark, m.FetchDuration)
	return m
}

func (m *IngestMetrics) ObserveFetch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(took.Seconds())
}

func (m *IngestMetrics) ObservePersist(sink string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PersistFailureTotal.WithLabelValues(sink).Inc()
	}
	if rows > 0 {
		m.RowsPersistedTotal.WithLabelValues(sink).Add(float64(rows))
	}
}

func (m *IngestMetrics) ObserveRun(mode, result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(mode, result).Inc()
}

func (m *IngestMetrics) SetWatermark(date time.Time) {
	if m == nil {
		return
	}
	m.Watermark.Set(float64(date.Unix()))
}
