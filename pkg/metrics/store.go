package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records refresh activity for the Airtable-backed stores.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	items    *prometheus.GaugeVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_refresh_duration_seconds",
		Help:    "Duration of store refreshes against Airtable in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_refresh_success",
		Help: "Successful store refreshes.",
	}, []string{"store"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_refresh_failure",
		Help: "Failed store refreshes.",
	}, []string{"store"})
	items := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "store_items",
		Help: "Items held by the last successful refresh.",
	}, []string{"store"})
	reg.MustRegister(duration, success, failure, items)
	return &StoreMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		items:    items,
	}
}

// ObserveRefresh records one refresh outcome. items is ignored on failure.
func (s *StoreMetrics) ObserveRefresh(store string, took time.Duration, items int, err error) {
	if s == nil || s.duration == nil {
		return
	}
	label := normalizeLabel(store)
	s.duration.WithLabelValues(label).Observe(took.Seconds())
	if err != nil {
		s.failure.WithLabelValues(label).Inc()
		return
	}
	s.success.WithLabelValues(label).Inc()
	s.items.WithLabelValues(label).Set(float64(items))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
