// Package metrics provides custom Prometheus metrics for the application's
// components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// NotifyMetrics contains all Prometheus metrics related to the change
// detection sweep and notification generation.
type NotifyMetrics struct {
	NotificationsCreated    *prometheus.CounterVec // created notifications by type
	SweepsTotal             prometheus.Counter     // completed sweep runs
	FollowFailures          prometheus.Counter     // follows skipped due to errors
	OldNotificationsDeleted prometheus.Counter     // notifications removed by retention
}

// NewNotifyMetrics creates a new instance of NotifyMetrics registered with
// the given registry.
func NewNotifyMetrics(registry *prometheus.Registry) (*NotifyMetrics, error) {
	m := &NotifyMetrics{
		NotificationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_notifications_created_total",
				Help: "Total number of notifications created by the change detection sweep, by type",
			},
			[]string{"type"},
		),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_sweeps_total",
			Help: "Total number of completed notification sweep runs",
		}),
		FollowFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_follow_failures_total",
			Help: "Total number of followed restaurants skipped due to evaluation errors",
		}),
		OldNotificationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_old_notifications_deleted_total",
			Help: "Total number of notifications removed by the retention sweep",
		}),
	}

	collectors := []prometheus.Collector{
		m.NotificationsCreated,
		m.SweepsTotal,
		m.FollowFailures,
		m.OldNotificationsDeleted,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register notify metrics: %w", err)
		}
	}
	return m, nil
}
