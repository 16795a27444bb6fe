package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OwnershipMetrics records outcomes of owner-set propagation runs.
type OwnershipMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	partial  *prometheus.CounterVec
}

// NewOwnershipMetrics registers the propagation metrics on the provided registerer.
func NewOwnershipMetrics(reg prometheus.Registerer) *OwnershipMetrics {
	if reg == nil {
		return &OwnershipMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ownership_fanout_duration_seconds",
		Help:    "Duration of owner-set propagation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ownership_fanout_rows_success",
		Help: "Rows whose owner set was updated during propagation.",
	}, []string{"entity"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ownership_fanout_rows_failure",
		Help: "Rows whose owner-set update exhausted retries.",
	}, []string{"entity"})
	partial := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ownership_fanout_partial_total",
		Help: "Propagation runs that completed with at least one failed row.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, partial)
	return &OwnershipMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		partial:  partial,
	}
}

// ObserveDuration records the duration for the named propagation operation.
func (o *OwnershipMetrics) ObserveDuration(operation string, duration time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// AddSuccess adds updated-row counts for the named entity.
func (o *OwnershipMetrics) AddSuccess(entity string, rows int) {
	if o == nil || o.success == nil || rows <= 0 {
		return
	}
	o.success.WithLabelValues(normalizeLabel(entity)).Add(float64(rows))
}

// AddFailure adds failed-row counts for the named entity.
func (o *OwnershipMetrics) AddFailure(entity string, rows int) {
	if o == nil || o.failure == nil || rows <= 0 {
		return
	}
	o.failure.WithLabelValues(normalizeLabel(entity)).Add(float64(rows))
}

// IncPartial increments the partial-completion counter for the operation.
func (o *OwnershipMetrics) IncPartial(operation string) {
	if o == nil || o.partial == nil {
		return
	}
	o.partial.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
