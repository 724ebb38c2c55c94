package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"maintcore/pkg/domain"
)

// MetricsRecorder observes gateway operations.
type MetricsRecorder interface {
	ObserveOperation(backend domain.BackendKind, c domain.Collection, op string, elapsed time.Duration, err error)
}

// NoopMetrics discards observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveOperation(domain.BackendKind, domain.Collection, string, time.Duration, error) {}

// PrometheusMetrics records operation counts and latencies.
type PrometheusMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the gateway collectors on reg under
// namespace. Collectors already registered by an earlier call are reused.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "operations_total",
		Help:      "Backend operations issued through the gateway by result.",
	}, []string{"backend", "collection", "op", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "operation_duration_seconds",
		Help:      "Latency of backend operations issued through the gateway.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"backend", "collection", "op"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PrometheusMetrics{operations: operations, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *PrometheusMetrics) ObserveOperation(backend domain.BackendKind, c domain.Collection, op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
		if errors.Is(err, domain.ErrRecordMissing) {
			result = "missing"
		} else if errors.Is(err, domain.ErrRecordExists) {
			result = "exists"
		}
	}
	m.operations.WithLabelValues(string(backend), string(c), op, result).Inc()
	m.duration.WithLabelValues(string(backend), string(c), op).Observe(elapsed.Seconds())
}
