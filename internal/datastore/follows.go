// follows.go: favorites and follow subscriptions keyed by follower identity
package datastore

import (
	"gorm.io/gorm"

	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/identity"
)

// GetFavorite returns the favorite of one identity for one restaurant.
func (ds *DataStore) GetFavorite(id identity.Identity, camis int64) (*Favorite, error) {
	scope, err := identityScope(id)
	if err != nil {
		return nil, err
	}
	var favorite Favorite
	err = ds.DB.Scopes(scope).Where("camis = ?", camis).First(&favorite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFavoriteNotFound
		}
		return nil, dbError(err, "get_favorite", "camis", camis)
	}
	return &favorite, nil
}

// SaveFavorite stores a favorite for the identity recorded on it.
func (ds *DataStore) SaveFavorite(favorite *Favorite) error {
	if err := ds.DB.Create(favorite).Error; err != nil {
		return dbError(err, "save_favorite", "camis", favorite.CAMIS)
	}
	return nil
}

// DeleteFavorite removes one identity's favorite for one restaurant.
func (ds *DataStore) DeleteFavorite(id identity.Identity, camis int64) error {
	scope, err := identityScope(id)
	if err != nil {
		return err
	}
	if err := ds.DB.Scopes(scope).Where("camis = ?", camis).Delete(&Favorite{}).Error; err != nil {
		return dbError(err, "delete_favorite", "camis", camis)
	}
	return nil
}

// GetFavorites returns all favorites of one identity.
func (ds *DataStore) GetFavorites(id identity.Identity) ([]Favorite, error) {
	scope, err := identityScope(id)
	if err != nil {
		return nil, err
	}
	var favorites []Favorite
	if err := ds.DB.Scopes(scope).Order("created_at DESC").Find(&favorites).Error; err != nil {
		return nil, dbError(err, "get_favorites")
	}
	return favorites, nil
}

// GetFollow returns the follow of one identity for one restaurant.
func (ds *DataStore) GetFollow(id identity.Identity, camis int64) (*Follow, error) {
	scope, err := identityScope(id)
	if err != nil {
		return nil, err
	}
	var follow Follow
	err = ds.DB.Scopes(scope).Where("camis = ?", camis).First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFollowNotFound
		}
		return nil, dbError(err, "get_follow", "camis", camis)
	}
	return &follow, nil
}

// SaveFollow stores a new follow. The identity columns must already be set
// via NewFollow.
func (ds *DataStore) SaveFollow(follow *Follow) error {
	if err := ds.DB.Create(follow).Error; err != nil {
		return dbError(err, "save_follow", "camis", follow.CAMIS)
	}
	return nil
}

// UpdateFollow persists snapshot or preference changes on an existing follow.
func (ds *DataStore) UpdateFollow(follow *Follow) error {
	if follow.ID == 0 {
		return errors.Newf("cannot update unsaved follow").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	// Save writes all fields so toggles switched off are persisted too.
	if err := ds.DB.Save(follow).Error; err != nil {
		return dbError(err, "update_follow", "follow_id", follow.ID)
	}
	return nil
}

// DeleteFollow removes one identity's follow and its notifications.
func (ds *DataStore) DeleteFollow(id identity.Identity, camis int64) error {
	follow, err := ds.GetFollow(id, camis)
	if err != nil {
		return err
	}
	return ds.Transaction(func(tx *DataStore) error {
		if err := tx.DB.Where("follow_id = ?", follow.ID).Delete(&Notification{}).Error; err != nil {
			return dbError(err, "delete_follow_notifications", "follow_id", follow.ID)
		}
		if err := tx.DB.Delete(&Follow{}, follow.ID).Error; err != nil {
			return dbError(err, "delete_follow", "follow_id", follow.ID)
		}
		return nil
	})
}

// GetFollows returns all follows of one identity.
func (ds *DataStore) GetFollows(id identity.Identity) ([]Follow, error) {
	scope, err := identityScope(id)
	if err != nil {
		return nil, err
	}
	var follows []Follow
	if err := ds.DB.Scopes(scope).
		Preload("Notifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Order("created_at DESC").Find(&follows).Error; err != nil {
		return nil, dbError(err, "get_follows")
	}
	return follows, nil
}

// GetAllFollows returns every follow across all identities, used by the
// notification sweep.
func (ds *DataStore) GetAllFollows() ([]Follow, error) {
	var follows []Follow
	if err := ds.DB.Order("id").Find(&follows).Error; err != nil {
		return nil, dbError(err, "get_all_follows")
	}
	return follows, nil
}

// AdoptSessionFollows reassigns anonymous favorites and follows from a
// session to a user, preserving snapshots and notification history. Rows
// for restaurants the user already follows or favorites are dropped rather
// than duplicated. Runs at the login/signup boundary.
func (ds *DataStore) AdoptSessionFollows(sessionToken string, userID uint) error {
	if sessionToken == "" || userID == 0 {
		return ErrInvalidIdentity
	}
	return ds.Transaction(func(tx *DataStore) error {
		// A restaurant the user already favorites or follows keeps the
		// user's row; the anonymous duplicate is dropped so at most one
		// row per (identity, restaurant) survives the merge.
		userFavorites := tx.DB.Model(&Favorite{}).Select("camis").Where("user_id = ?", userID)
		if err := tx.DB.
			Where("session_key = ? AND user_id IS NULL AND camis IN (?)", sessionToken, userFavorites).
			Delete(&Favorite{}).Error; err != nil {
			return dbError(err, "adopt_session_favorites", "user_id", userID)
		}

		var collidingFollowIDs []uint
		userFollows := tx.DB.Model(&Follow{}).Select("camis").Where("user_id = ?", userID)
		if err := tx.DB.Model(&Follow{}).
			Where("session_key = ? AND user_id IS NULL AND camis IN (?)", sessionToken, userFollows).
			Pluck("id", &collidingFollowIDs).Error; err != nil {
			return dbError(err, "adopt_session_follows", "user_id", userID)
		}
		if len(collidingFollowIDs) > 0 {
			if err := tx.DB.Where("follow_id IN ?", collidingFollowIDs).
				Delete(&Notification{}).Error; err != nil {
				return dbError(err, "adopt_session_follow_notifications", "user_id", userID)
			}
			if err := tx.DB.Delete(&Follow{}, collidingFollowIDs).Error; err != nil {
				return dbError(err, "adopt_session_follows", "user_id", userID)
			}
		}

		updates := map[string]any{"user_id": userID, "session_key": ""}
		if err := tx.DB.Model(&Favorite{}).
			Where("session_key = ? AND user_id IS NULL", sessionToken).
			Updates(updates).Error; err != nil {
			return dbError(err, "adopt_session_favorites", "user_id", userID)
		}
		if err := tx.DB.Model(&Follow{}).
			Where("session_key = ? AND user_id IS NULL", sessionToken).
			Updates(updates).Error; err != nil {
			return dbError(err, "adopt_session_follows", "user_id", userID)
		}
		return nil
	})
}

// NewFollow builds a Follow owned by the given identity.
func NewFollow(id identity.Identity, camis int64, restaurantName string) (*Follow, error) {
	follow := &Follow{
		CAMIS:                camis,
		RestaurantName:       restaurantName,
		NotifyGradeChanges:   true,
		NotifyNewInspections: true,
		NotifyViolations:     true,
	}
	if err := applyIdentity(id, &follow.SessionKey, &follow.UserID); err != nil {
		return nil, err
	}
	return follow, nil
}

// NewFavorite builds a Favorite owned by the given identity.
func NewFavorite(id identity.Identity, camis int64, restaurantName string) (*Favorite, error) {
	favorite := &Favorite{
		CAMIS:          camis,
		RestaurantName: restaurantName,
	}
	if err := applyIdentity(id, &favorite.SessionKey, &favorite.UserID); err != nil {
		return nil, err
	}
	return favorite, nil
}

// dbError wraps a database error with operation context.
func dbError(err error, operation string, kv ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			builder = builder.Context(key, kv[i+1])
		}
	}
	return builder.Build()
}
