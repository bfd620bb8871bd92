// notifications.go: persistence for generated notifications
package datastore

import (
	"time"

	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/identity"
)

// SaveNotification stores a generated notification row.
func (ds *DataStore) SaveNotification(notification *Notification) error {
	if notification == nil {
		return errors.Newf("notification cannot be nil").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if notification.FollowID == 0 {
		return errors.Newf("notification must reference a follow").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := ds.DB.Create(notification).Error; err != nil {
		return dbError(err, "save_notification", "follow_id", notification.FollowID, "type", notification.Type)
	}
	return nil
}

// GetNotifications returns notifications across all of one identity's
// follows, newest first, limited to limit rows (0 means no limit).
func (ds *DataStore) GetNotifications(id identity.Identity, limit int) ([]Notification, error) {
	followIDs, err := ds.followIDs(id)
	if err != nil {
		return nil, err
	}
	if len(followIDs) == 0 {
		return nil, nil
	}
	var notifications []Notification
	query := ds.DB.Where("follow_id IN ?", followIDs).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, dbError(err, "get_notifications")
	}
	return notifications, nil
}

// MarkNotificationsRead marks all of one identity's unread notifications
// as read, the behavior of viewing the notification list.
func (ds *DataStore) MarkNotificationsRead(id identity.Identity) error {
	followIDs, err := ds.followIDs(id)
	if err != nil {
		return err
	}
	if len(followIDs) == 0 {
		return nil
	}
	err = ds.DB.Model(&Notification{}).
		Where("follow_id IN ? AND is_read = ?", followIDs, false).
		Update("is_read", true).Error
	if err != nil {
		return dbError(err, "mark_notifications_read")
	}
	return nil
}

// CountUnreadNotifications returns the unread notification count for one
// identity.
func (ds *DataStore) CountUnreadNotifications(id identity.Identity) (int64, error) {
	followIDs, err := ds.followIDs(id)
	if err != nil {
		return 0, err
	}
	if len(followIDs) == 0 {
		return 0, nil
	}
	var count int64
	err = ds.DB.Model(&Notification{}).
		Where("follow_id IN ? AND is_read = ?", followIDs, false).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count_unread_notifications")
	}
	return count, nil
}

// DeleteNotificationsOlderThan removes notifications created before the
// cutoff and reports how many were removed.
func (ds *DataStore) DeleteNotificationsOlderThan(cutoff time.Time) (int64, error) {
	result := ds.DB.Where("created_at < ?", cutoff).Delete(&Notification{})
	if result.Error != nil {
		return 0, dbError(result.Error, "delete_old_notifications")
	}
	return result.RowsAffected, nil
}

// followIDs returns the IDs of all follows owned by one identity.
func (ds *DataStore) followIDs(id identity.Identity) ([]uint, error) {
	scope, err := identityScope(id)
	if err != nil {
		return nil, err
	}
	var ids []uint
	if err := ds.DB.Model(&Follow{}).Scopes(scope).Pluck("id", &ids).Error; err != nil {
		return nil, dbError(err, "follow_ids")
	}
	return ids, nil
}
