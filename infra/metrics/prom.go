package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/npole/herodispatch/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	completions *prometheus.CounterVec
	etaSeconds  *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. Already
// registered collectors are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gift_assignments_total",
		Help: "Total number of hero assignments",
	}, []string{"hero", "queued"})
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gift_deliveries_completed_total",
		Help: "Total number of completed deliveries",
	}, []string{"hero"})
	etaSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gift_delivery_eta_seconds",
		Help:    "Estimated delivery duration at assignment time",
		Buckets: []float64{10, 20, 30, 45, 60, 90, 120},
	}, []string{"hero"})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(completions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			completions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(etaSeconds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			etaSeconds = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{assignments: assignments, completions: completions, etaSeconds: etaSeconds}, nil
}

// RecordAssignment increments the assignment counter and observes the ETA.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.assignments.WithLabelValues(ev.HeroName, strconv.FormatBool(ev.Queued)).Inc()
	s.etaSeconds.WithLabelValues(ev.HeroName).Observe(float64(ev.ETASeconds))
	return nil
}

// RecordCompletion increments the completion counter.
func (s *PromSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	s.completions.WithLabelValues(ev.HeroName).Inc()
	return nil
}
