// Package observability provides Prometheus metrics for the application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dinewatch/dinewatch-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Notify   *metrics.NotifyMetrics
	Rating   *metrics.RatingMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	notifyMetrics, err := metrics.NewNotifyMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify metrics: %w", err)
	}

	ratingMetrics, err := metrics.NewRatingMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create rating metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Notify:   notifyMetrics,
		Rating:   ratingMetrics,
	}, nil
}

// Handler returns an http.Handler serving the metrics endpoint for this
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
