package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// DedupeMetrics counts deduplication outcomes. The collectors are scraped
// from /-/metrics alongside the Go runtime collectors.
type DedupeMetrics struct {
	passes     *prometheus.CounterVec
	found      prometheus.Counter
	deleted    prometheus.Counter
	failed     prometheus.Counter
	deleteTime prometheus.Histogram
}

// NewDedupeMetrics creates the collectors and registers them with reg.
// Registering twice on the same registry returns the existing collectors.
func NewDedupeMetrics(reg prometheus.Registerer) (*DedupeMetrics, error) {
	m := &DedupeMetrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "dedupe",
			Name:      "passes_total",
			Help:      "Deduplication passes by outcome (noop, clean, partial).",
		}, []string{"outcome"}),
		found: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "dedupe",
			Name:      "duplicates_found_total",
			Help:      "Quotes marked as duplicates.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "dedupe",
			Name:      "deletions_succeeded_total",
			Help:      "Duplicate quotes removed from the store.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "dedupe",
			Name:      "deletions_failed_total",
			Help:      "Duplicate quotes that could not be removed and were retained.",
		}),
		deleteTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dealflow",
			Subsystem: "dedupe",
			Name:      "delete_duration_seconds",
			Help:      "Latency of single remote quote deletions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	var err error
	if m.passes, err = register(reg, m.passes); err != nil {
		return nil, err
	}
	if m.found, err = register(reg, m.found); err != nil {
		return nil, err
	}
	if m.deleted, err = register(reg, m.deleted); err != nil {
		return nil, err
	}
	if m.failed, err = register(reg, m.failed); err != nil {
		return nil, err
	}
	if m.deleteTime, err = register(reg, m.deleteTime); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

// ObservePass records one pass. A nil receiver is a no-op so callers may
// run without metrics.
func (m *DedupeMetrics) ObservePass(found, deleted int) {
	if m == nil {
		return
	}

	outcome := "clean"
	switch {
	case found == 0:
		outcome = "noop"
	case deleted < found:
		outcome = "partial"
	}

	m.passes.WithLabelValues(outcome).Inc()
	m.found.Add(float64(found))
	m.deleted.Add(float64(deleted))
	m.failed.Add(float64(found - deleted))
}

// ObserveDelete records the latency of one remote deletion.
func (m *DedupeMetrics) ObserveDelete(seconds float64) {
	if m == nil {
		return
	}

	m.deleteTime.Observe(seconds)
}
