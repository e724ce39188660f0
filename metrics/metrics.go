package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geoconsole"

var Separator = "_" //nolint:gochecknoglobals

type MKey string

func NewMKey(parts ...string) MKey {
	return MKey(strings.Join(parts, Separator))
}

type MonitoringConf struct {
	Metrics bool   `json:"metrics" yaml:"metrics"`
	Path    string `json:"path" yaml:"path"`
}

func (cfg MonitoringConf) MetricsPath() string {
	if cfg.Path == "" {
		return "/metrics"
	}
	return cfg.Path
}

//nolint:gochecknoglobals
var (
	registry = prometheus.NewRegistry()

	gaugesMu sync.RWMutex
	gauges   = map[MKey]prometheus.Gauge{}

	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests issued to the upstream REST API.",
	}, []string{"resource", "method", "code"})

	reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliations_total",
		Help:      "Draft reconciliation outcomes.",
	}, []string{"resource", "result"})
)

func init() {
	registry.MustRegister(
		prometheus.NewGoCollector(),
		upstreamRequests,
		reconciliations,
	)
}

// RegisterGauges creates gauges for keys. Keys registered twice are ignored.
func RegisterGauges(keys ...MKey) {
	gaugesMu.Lock()
	defer gaugesMu.Unlock()

	for _, key := range keys {
		if _, ok := gauges[key]; ok {
			continue
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      string(key),
		})
		if err := registry.Register(g); err != nil {
			continue
		}
		gauges[key] = g
	}
}

func gauge(key MKey) prometheus.Gauge {
	gaugesMu.RLock()
	defer gaugesMu.RUnlock()
	return gauges[key]
}

// Inc increments the gauge, unknown keys are ignored.
func Inc(key MKey) {
	if g := gauge(key); g != nil {
		g.Inc()
	}
}

func Dec(key MKey) {
	if g := gauge(key); g != nil {
		g.Dec()
	}
}

func Set(key MKey, value float64) {
	if g := gauge(key); g != nil {
		g.Set(value)
	}
}

func ObserveUpstream(resource, method, code string) {
	upstreamRequests.WithLabelValues(resource, method, code).Inc()
}

func ObserveReconcile(resource, result string) {
	reconciliations.WithLabelValues(resource, result).Inc()
}

// GetMonitoringMux serves the registry when metrics are enabled.
func GetMonitoringMux(cfg MonitoringConf) http.Handler {
	mux := http.NewServeMux()
	if cfg.Metrics {
		mux.Handle(cfg.MetricsPath(), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	return mux
}
