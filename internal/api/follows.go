package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/rating"
)

// initFollowRoutes registers favorite and follow endpoints.
func (c *Controller) initFollowRoutes() {
	c.Group.POST("/favorites/toggle", c.ToggleFavorite)
	c.Group.GET("/favorites", c.GetFavorites)
	c.Group.POST("/follows/toggle", c.ToggleFollow)
	c.Group.GET("/follows", c.GetFollows)
	c.Group.POST("/follows/preferences", c.UpdateFollowPreferences)
}

// ToggleRequest is the body for favorite and follow toggle endpoints.
type ToggleRequest struct {
	CAMIS          int64  `json:"camis"`
	RestaurantName string `json:"restaurant_name"`
}

// ToggleFavorite handles POST /api/v1/favorites/toggle. Favoriting an
// already-favorited restaurant removes the favorite.
func (c *Controller) ToggleFavorite(ctx echo.Context) error {
	var req ToggleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.CAMIS == 0 {
		return c.HandleError(ctx, nil, "Missing camis", http.StatusBadRequest)
	}

	id := requestIdentity(ctx)
	if _, err := c.DS.GetFavorite(id, req.CAMIS); err == nil {
		if err := c.DS.DeleteFavorite(id, req.CAMIS); err != nil {
			return c.HandleError(ctx, err, "Failed to remove favorite", http.StatusInternalServerError)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"is_favorited": false})
	} else if !errors.Is(err, datastore.ErrFavoriteNotFound) {
		return c.HandleError(ctx, err, "Failed to check favorite", http.StatusInternalServerError)
	}

	favorite, err := datastore.NewFavorite(id, req.CAMIS, req.RestaurantName)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid identity", http.StatusBadRequest)
	}
	if err := c.DS.SaveFavorite(favorite); err != nil {
		return c.HandleError(ctx, err, "Failed to save favorite", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"is_favorited": true})
}

// FavoriteEntry pairs a favorite with the restaurant's current rating.
type FavoriteEntry struct {
	Favorite datastore.Favorite `json:"favorite"`
	Rating   rating.Result      `json:"rating"`
}

// GetFavorites handles GET /api/v1/favorites.
func (c *Controller) GetFavorites(ctx echo.Context) error {
	id := requestIdentity(ctx)
	favorites, err := c.DS.GetFavorites(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load favorites", http.StatusInternalServerError)
	}

	entries := make([]FavoriteEntry, 0, len(favorites))
	for i := range favorites {
		fav := favorites[i]
		ratingResult, err := c.Ratings.Compute(fav.CAMIS, rating.ModeFull)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to compute rating", http.StatusInternalServerError)
		}
		entries = append(entries, FavoriteEntry{Favorite: fav, Rating: ratingResult})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"favorites": entries,
		"total":     len(entries),
	})
}

// ToggleFollow handles POST /api/v1/follows/toggle. A new follow seeds its
// change detection snapshot from the restaurant's latest inspection so the
// follower is only notified about changes that happen after they follow.
func (c *Controller) ToggleFollow(ctx echo.Context) error {
	var req ToggleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.CAMIS == 0 {
		return c.HandleError(ctx, nil, "Missing camis", http.StatusBadRequest)
	}

	id := requestIdentity(ctx)
	if _, err := c.DS.GetFollow(id, req.CAMIS); err == nil {
		if err := c.DS.DeleteFollow(id, req.CAMIS); err != nil {
			return c.HandleError(ctx, err, "Failed to unfollow", http.StatusInternalServerError)
		}
		return ctx.JSON(http.StatusOK, map[string]any{
			"is_followed": false,
			"message":     fmt.Sprintf("Stopped following %s", req.RestaurantName),
		})
	} else if !errors.Is(err, datastore.ErrFollowNotFound) {
		return c.HandleError(ctx, err, "Failed to check follow", http.StatusInternalServerError)
	}

	follow, err := datastore.NewFollow(id, req.CAMIS, req.RestaurantName)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid identity", http.StatusBadRequest)
	}
	if latest, err := c.DS.GetLatestInspection(req.CAMIS); err == nil {
		follow.LastKnownGrade = latest.Grade
		follow.LastInspectionDate = latest.InspectionDate
	} else if !errors.Is(err, datastore.ErrInspectionNotFound) {
		return c.HandleError(ctx, err, "Failed to load latest inspection", http.StatusInternalServerError)
	}
	if err := c.DS.SaveFollow(follow); err != nil {
		return c.HandleError(ctx, err, "Failed to save follow", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"is_followed": true,
		"message":     fmt.Sprintf("Now following %s - You'll get notified of health updates!", req.RestaurantName),
	})
}

// FollowEntry pairs a follow with the restaurant's current rating and its
// recent notifications.
type FollowEntry struct {
	Follow              datastore.Follow         `json:"follow"`
	Rating              rating.Result            `json:"rating"`
	RecentNotifications []datastore.Notification `json:"recent_notifications"`
}

// GetFollows handles GET /api/v1/follows.
func (c *Controller) GetFollows(ctx echo.Context) error {
	id := requestIdentity(ctx)
	follows, err := c.DS.GetFollows(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load follows", http.StatusInternalServerError)
	}

	entries := make([]FollowEntry, 0, len(follows))
	for i := range follows {
		follow := follows[i]
		ratingResult, err := c.Ratings.Compute(follow.CAMIS, rating.ModeFull)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to compute rating", http.StatusInternalServerError)
		}
		recent := follow.Notifications
		if len(recent) > 3 {
			recent = recent[:3]
		}
		entries = append(entries, FollowEntry{
			Follow:              follow,
			Rating:              ratingResult,
			RecentNotifications: recent,
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"follows": entries,
		"total":   len(entries),
	})
}

// PreferencesRequest is the body for POST /api/v1/follows/preferences.
type PreferencesRequest struct {
	CAMIS            int64  `json:"camis"`
	NotificationType string `json:"notification_type"`
	Enabled          bool   `json:"enabled"`
}

// UpdateFollowPreferences handles POST /api/v1/follows/preferences,
// toggling one notification type for one followed restaurant.
func (c *Controller) UpdateFollowPreferences(ctx echo.Context) error {
	var req PreferencesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.CAMIS == 0 || req.NotificationType == "" {
		return c.HandleError(ctx, nil, "Missing parameters", http.StatusBadRequest)
	}

	// Validate the type before the database lookup.
	switch req.NotificationType {
	case "grade_changes", "new_inspections", "violations":
	default:
		return c.HandleError(ctx, nil, "Invalid notification type", http.StatusBadRequest)
	}

	id := requestIdentity(ctx)
	follow, err := c.DS.GetFollow(id, req.CAMIS)
	if err != nil {
		if errors.Is(err, datastore.ErrFollowNotFound) {
			return c.HandleError(ctx, err, "Restaurant not found in your followed list", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load follow", http.StatusInternalServerError)
	}

	switch req.NotificationType {
	case "grade_changes":
		follow.NotifyGradeChanges = req.Enabled
	case "new_inspections":
		follow.NotifyNewInspections = req.Enabled
	case "violations":
		follow.NotifyViolations = req.Enabled
	}
	if err := c.DS.UpdateFollow(follow); err != nil {
		return c.HandleError(ctx, err, "Failed to update preferences", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Notification preference updated for %s", follow.RestaurantName),
	})
}
