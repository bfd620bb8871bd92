package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initNotificationRoutes registers notification endpoints.
func (c *Controller) initNotificationRoutes() {
	c.Group.GET("/notifications", c.GetNotifications)
	c.Group.GET("/notifications/unread-count", c.GetUnreadCount)
}

// GetNotifications handles GET /api/v1/notifications. Listing marks all of
// the identity's notifications as read, matching the notification page
// behavior of clearing the unread badge on view.
func (c *Controller) GetNotifications(ctx echo.Context) error {
	id := requestIdentity(ctx)

	notifications, err := c.DS.GetNotifications(id, 0)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load notifications", http.StatusInternalServerError)
	}
	if err := c.DS.MarkNotificationsRead(id); err != nil {
		return c.HandleError(ctx, err, "Failed to mark notifications read", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count.
func (c *Controller) GetUnreadCount(ctx echo.Context) error {
	id := requestIdentity(ctx)
	count, err := c.DS.CountUnreadNotifications(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count notifications", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"unread": count})
}
