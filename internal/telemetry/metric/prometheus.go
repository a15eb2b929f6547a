// Package metric provides Prometheus metrics for the Kinance client.
package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "kinance"

// Refresh outcomes recorded by ObserveRefresh.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshNoToken = "no_token"
	RefreshSkipped = "skipped"
)

// Registry holds the client metrics.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
	StoreOpsTotal   *prometheus.CounterVec
}

// NewRegistry creates a registry with all client metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and HTTP status (0 for transport errors)",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound API request latency",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by outcome",
		}, []string{"result"}),
		StoreOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credstore",
			Name:      "operations_total",
			Help:      "Credential store operations by op and result",
		}, []string{"op", "result"}),
	}

	r.registry.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RefreshTotal,
		r.StoreOpsTotal,
		collectors.NewGoCollector(),
	)

	return r
}

// ObserveRequest records one completed request.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRefresh records a refresh attempt outcome.
func (r *Registry) ObserveRefresh(result string) {
	if r == nil {
		return
	}
	r.RefreshTotal.WithLabelValues(result).Inc()
}

// ObserveStoreOp records a credential store operation.
func (r *Registry) ObserveStoreOp(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.StoreOpsTotal.WithLabelValues(op, result).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in text exposition format to path.
// The write is atomic (temp file + rename).
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
