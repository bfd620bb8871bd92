package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initAccountRoutes registers account endpoints.
func (c *Controller) initAccountRoutes() {
	c.Group.POST("/account/sync", c.SyncAccount)
}

// SyncAccountRequest is the body for POST /api/v1/account/sync.
type SyncAccountRequest struct {
	UserID uint `json:"user_id"`
}

// SyncAccount handles POST /api/v1/account/sync. Called at login or
// signup, it reassigns the anonymous session's favorites and follows to
// the authenticated user so subscriptions and notification history survive
// account creation.
func (c *Controller) SyncAccount(ctx echo.Context) error {
	var req SyncAccountRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.UserID == 0 {
		return c.HandleError(ctx, nil, "Missing user_id", http.StatusBadRequest)
	}

	session, _ := c.sessionStore.Get(ctx.Request(), sessionCookieName)
	token, _ := session.Values[sessionTokenKey].(string)
	if token == "" {
		// Nothing to adopt, the caller had no anonymous history.
		return ctx.JSON(http.StatusOK, map[string]any{"success": true, "adopted": false})
	}

	if err := c.DS.AdoptSessionFollows(token, req.UserID); err != nil {
		return c.HandleError(ctx, err, "Failed to sync account", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"success": true, "adopted": true})
}
