// Package notify implements change detection over followed restaurants:
// it compares each follow's snapshot against the restaurant's most recent
// inspection, emits user facing notifications for meaningful transitions,
// advances the snapshot, and expires old notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/grading"
	"github.com/dinewatch/dinewatch-go/internal/observability"
)

// SweepReport summarizes one notification sweep run.
type SweepReport struct {
	NotificationsCreated    int `json:"notifications_created"`
	FollowsScanned          int `json:"follows_scanned"`
	OldNotificationsDeleted int `json:"old_notifications_deleted"`
}

// Generator evaluates followed restaurants and produces notifications.
type Generator struct {
	ds            datastore.Interface
	retentionDays int
	pusher        *Pusher
	metrics       *observability.Metrics
	nowFunc       func() time.Time
}

// New creates a notification generator. pusher and metrics may be nil.
func New(ds datastore.Interface, settings *conf.Settings, pusher *Pusher, metrics *observability.Metrics) *Generator {
	return &Generator{
		ds:            ds,
		retentionDays: settings.Notify.RetentionDays,
		pusher:        pusher,
		metrics:       metrics,
		nowFunc:       time.Now,
	}
}

// Sweep evaluates every follow against inspections dated within the
// lookback window and then expires old notifications. A failure on one
// follow is logged and skipped; the sweep itself only fails if the follow
// list cannot be read at all.
func (g *Generator) Sweep(ctx context.Context, lookbackDays int) (SweepReport, error) {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	now := g.nowFunc()
	// Inspection dates carry no time component, so the cutoff snaps to
	// local midnight.
	cutoff := now.AddDate(0, 0, -lookbackDays)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	logger := GetLogger()
	logger.Info("starting notification sweep",
		"cutoff", cutoff.Format("2006-01-02"),
		"lookback_days", lookbackDays)

	report := SweepReport{}

	follows, err := g.ds.GetAllFollows()
	if err != nil {
		return report, errors.New(err).
			Component("notify").
			Category(errors.CategoryNotification).
			Context("operation", "list_follows").
			Build()
	}

	for i := range follows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		follow := &follows[i]
		created, err := g.evaluateFollow(follow, cutoff)
		if err != nil {
			// One broken follow must not abort the batch.
			logger.Error("error processing followed restaurant",
				"camis", follow.CAMIS,
				"restaurant", follow.RestaurantName,
				"error", err)
			if g.metrics != nil {
				g.metrics.Notify.FollowFailures.Inc()
			}
			continue
		}
		report.FollowsScanned++
		report.NotificationsCreated += created
	}

	deleted, err := g.expireOldNotifications()
	if err != nil {
		logger.Error("retention sweep failed", "error", err)
	}
	report.OldNotificationsDeleted = deleted

	if g.metrics != nil {
		g.metrics.Notify.SweepsTotal.Inc()
		g.metrics.Notify.OldNotificationsDeleted.Add(float64(deleted))
	}

	logger.Info("notification sweep complete",
		"notifications_created", report.NotificationsCreated,
		"follows_scanned", report.FollowsScanned,
		"old_notifications_deleted", report.OldNotificationsDeleted)

	return report, nil
}

// EvaluateFollow runs change detection for a single follow, outside of a
// sweep. Used by ad hoc invocations.
func (g *Generator) EvaluateFollow(follow *datastore.Follow, cutoff time.Time) (int, error) {
	return g.evaluateFollow(follow, cutoff)
}

// evaluateFollow checks one followed restaurant for changes since the
// snapshot and writes any notifications plus the snapshot update in one
// transaction. Returns the number of notifications created.
func (g *Generator) evaluateFollow(follow *datastore.Follow, cutoff time.Time) (created int, err error) {
	// Malformed rows must surface as errors, not panics, so the sweep
	// can isolate them.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic evaluating follow: %v", r).
				Component("notify").
				Category(errors.CategoryNotification).
				Context("camis", follow.CAMIS).
				Build()
		}
	}()

	latest, err := g.ds.GetLatestInspectionSince(follow.CAMIS, cutoff)
	if err != nil {
		if errors.Is(err, datastore.ErrInspectionNotFound) {
			// Nothing new inside the lookback window; leave the
			// snapshot untouched.
			return 0, nil
		}
		return 0, err
	}

	pending, snapshotChanged := g.detectChanges(follow, &latest)
	if len(pending) == 0 && !snapshotChanged {
		return 0, nil
	}

	err = g.ds.Transaction(func(tx *datastore.DataStore) error {
		for _, notification := range pending {
			notification.FollowID = follow.ID
			if err := tx.SaveNotification(notification); err != nil {
				return err
			}
		}
		if snapshotChanged {
			return tx.UpdateFollow(follow)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, notification := range pending {
		if g.metrics != nil {
			g.metrics.Notify.NotificationsCreated.WithLabelValues(notification.Type).Inc()
		}
		if g.pusher != nil {
			g.pusher.Forward(notification, follow.RestaurantName)
		}
	}

	return len(pending), nil
}

// detectChanges applies the three preference-gated checks against the
// latest qualifying inspection and mutates the follow's snapshot fields
// in memory. The caller persists both.
func (g *Generator) detectChanges(follow *datastore.Follow, latest *datastore.Inspection) (pending []*datastore.Notification, snapshotChanged bool) {
	// Grade change: improvement, decline and lateral change are mutually
	// exclusive outcomes of one ordinal comparison.
	if follow.NotifyGradeChanges && latest.Grade != "" && latest.Grade != follow.LastKnownGrade {
		switch grading.Classify(follow.LastKnownGrade, latest.Grade) {
		case grading.ShiftImproved:
			pending = append(pending, gradeImprovedNotification(follow.RestaurantName, follow.LastKnownGrade, latest.Grade))
		case grading.ShiftDeclined:
			pending = append(pending, gradeDeclinedNotification(follow.RestaurantName, follow.LastKnownGrade, latest.Grade))
		case grading.ShiftLateral:
			pending = append(pending, gradeChangedNotification(follow.RestaurantName, follow.LastKnownGrade, latest.Grade))
		case grading.ShiftNone:
			// Unreachable, letters differ.
		}
		follow.LastKnownGrade = latest.Grade
		snapshotChanged = true
	}

	// New inspection: strictly newer than the snapshot date; a null
	// snapshot date counts as the minimum possible date.
	if follow.NotifyNewInspections && latest.InspectionDate != nil {
		lastKnown := minDate
		if follow.LastInspectionDate != nil {
			lastKnown = *follow.LastInspectionDate
		}
		if latest.InspectionDate.After(lastKnown) {
			pending = append(pending, newInspectionNotification(follow.RestaurantName, latest))
			date := *latest.InspectionDate
			follow.LastInspectionDate = &date
			snapshotChanged = true
		}
	}

	// Violations: the critical-flag check and the outbreak keyword scan
	// are independent, both may fire for the same inspection.
	if follow.NotifyViolations && latest.ViolationCode != "" {
		if latest.CriticalFlag == criticalFlagValue {
			pending = append(pending, criticalViolationNotification(follow.RestaurantName, latest))
		}
		if containsOutbreakKeyword(latest.ViolationDescription) {
			pending = append(pending, outbreakNotification(follow.RestaurantName, latest))
		}
	}

	return pending, snapshotChanged
}

// expireOldNotifications deletes notifications past the retention window
// and returns the count removed.
func (g *Generator) expireOldNotifications() (int, error) {
	cutoff := g.nowFunc().AddDate(0, 0, -g.retentionDays)
	deleted, err := g.ds.DeleteNotificationsOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		GetLogger().Info("cleaned up old notifications",
			"deleted", deleted,
			"retention_days", g.retentionDays)
	}
	return int(deleted), nil
}

// String renders the report for CLI output.
func (r SweepReport) String() string {
	return fmt.Sprintf("created %d notifications for %d followed restaurants, deleted %d old notifications",
		r.NotificationsCreated, r.FollowsScanned, r.OldNotificationsDeleted)
}
