package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder counts operations by status and tracks their latency.
type PrometheusRecorder struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the record store metrics on reg. A nil reg
// uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travelbook_record_operations_total",
			Help: "Record store operations by operation and status",
		}, []string{"operation", "status"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "travelbook_record_operation_duration_seconds",
			Help:    "Duration of record store operations (whole-collection read-modify-write)",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (p *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	p.Operations.WithLabelValues(operation, statusOf(success)).Inc()
	p.Duration.WithLabelValues(operation).Observe(duration.Seconds())
}
