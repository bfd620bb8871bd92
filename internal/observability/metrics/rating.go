package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RatingMetrics contains Prometheus metrics for the rating engine.
type RatingMetrics struct {
	ComputationsTotal *prometheus.CounterVec // rating computations by mode
	CacheHits         prometheus.Counter     // fast-mode cache hits
	CacheMisses       prometheus.Counter     // fast-mode cache misses
	ComputeDuration   prometheus.Histogram   // full computation latency
}

// NewRatingMetrics creates a new instance of RatingMetrics registered with
// the given registry.
func NewRatingMetrics(registry *prometheus.Registry) (*RatingMetrics, error) {
	m := &RatingMetrics{
		ComputationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_computations_total",
				Help: "Total number of rating computations, by mode",
			},
			[]string{"mode"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_cache_hits_total",
			Help: "Total number of fast-mode rating cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_cache_misses_total",
			Help: "Total number of fast-mode rating cache misses",
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_compute_duration_seconds",
			Help:    "Duration of full rating computations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.ComputationsTotal,
		m.CacheHits,
		m.CacheMisses,
		m.ComputeDuration,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register rating metrics: %w", err)
		}
	}
	return m, nil
}
