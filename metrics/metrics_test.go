package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGauges(t *testing.T) {
	key := NewMKey("test", "gauge")
	Inc(key) // unregistered keys are ignored

	RegisterGauges(key, key)
	Inc(key)
	Inc(key)
	Dec(key)

	assert.Equal(t, float64(1), testutil.ToFloat64(gauge(key)))

	Set(key, 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(gauge(key)))
}

func TestObserveReconcile(t *testing.T) {
	ObserveReconcile("dataset", "success")
	assert.Equal(t, float64(1), testutil.ToFloat64(reconciliations.WithLabelValues("dataset", "success")))
}

func TestGetMonitoringMux(t *testing.T) {
	ObserveUpstream("keys", http.MethodGet, "200")

	rec := httptest.NewRecorder()
	GetMonitoringMux(MonitoringConf{Metrics: true}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "geoconsole_upstream_requests_total")

	rec = httptest.NewRecorder()
	GetMonitoringMux(MonitoringConf{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
