package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestIngestMetrics_Counters(t *testing.T) {
	m := NewIngestMetrics(prometheus.NewRegistry())

	m.ObserveFetch("ok", 120*time.Millisecond)
	m.ObserveFetch("no_data", 80*time.Millisecond)
	m.ObserveFetch("ok", 90*time.Millisecond)
	m.ObservePersist("postgres", 43, nil)
	m.ObservePersist("postgres", 0, errors.New("boom"))
	m.ObserveRun("incremental", "ok")
	m.SetWatermark(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	require.Equal(t, 2.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("no_data")))
	require.Equal(t, 43.0, testutil.ToFloat64(m.RowsPersistedTotal.WithLabelValues("postgres")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailureTotal.WithLabelValues("postgres")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("incremental", "ok")))
	require.Equal(t, float64(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC).Unix()), testutil.ToFloat64(m.Watermark))
}

func TestIngestMetrics_NilIsNoop(t *testing.T) {
	var m *IngestMetrics
	require.NotPanics(t, func() {
		m.ObserveFetch("ok", time.Second)
		m.ObservePersist("csv", 1, nil)
		m.ObserveRun("backfill", "failed")
		m.SetWatermark(time.Now())
	})
}
