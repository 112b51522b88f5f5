package api

import (
	"cbrrates/internal/rate"
	"cbrrates/internal/rate/handler"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

type csvSink struct{}

func (csvSink) SinkName() string { return "csv" }

func newTestRouter() http.Handler {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cbrrates_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	status := handler.NewStatusHandler(rate.NewWatermark(nil, time.UTC), nil, csvSink{})
	return NewRouter(status, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

func TestRouter_Healthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Watermark(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/watermark", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"pending_days":1`)
	require.Contains(t, rr.Body.String(), `"sink":"csv"`)
}

func TestRouter_DateStatusWithoutStore(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dates/2000-01-02", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_Metrics(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "cbrrates_test_total 1"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rates", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
