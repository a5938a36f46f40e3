package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemoteCallMetrics records calls into the hosted store and auth provider.
type RemoteCallMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
}

// NewRemoteCallMetrics registers the remote call metrics on the provided
// registerer.
func NewRemoteCallMetrics(reg prometheus.Registerer) *RemoteCallMetrics {
	if reg == nil {
		return &RemoteCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of calls to the hosted backend in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_call_failures_total",
		Help: "Failed calls to the hosted backend.",
	}, []string{"backend", "operation"})
	reg.MustRegister(duration, failure)
	return &RemoteCallMetrics{duration: duration, failure: failure}
}

// Track starts timing one remote call. Call the returned func with the
// call's error when it finishes.
func (r *RemoteCallMetrics) Track(backend, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		r.ObserveCall(backend, operation, time.Since(start), err)
	}
}

// ObserveCall records one finished remote call.
func (r *RemoteCallMetrics) ObserveCall(backend, operation string, duration time.Duration, err error) {
	if r == nil || r.duration == nil {
		return
	}
	backend = normalizeLabel(backend)
	operation = normalizeLabel(operation)
	r.duration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		r.failure.WithLabelValues(backend, operation).Inc()
	}
}
