// Package api implements the JSON HTTP API for restaurant search, ratings,
// follows and notifications.
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/logging"
	"github.com/dinewatch/dinewatch-go/internal/observability"
	"github.com/dinewatch/dinewatch-go/internal/rating"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Ratings  *rating.Engine

	sessionStore   sessions.Store
	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
	startTime      time.Time
}

// New creates a new API controller and registers its routes on the given
// echo instance.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	ratings *rating.Engine, metrics *observability.Metrics) (*Controller, error) {

	c := &Controller{
		Echo:         e,
		DS:           ds,
		Settings:     settings,
		Ratings:      ratings,
		sessionStore: sessions.NewCookieStore([]byte(settings.Session.Secret)),
		metrics:      metrics,
		startTime:    time.Now(),
	}

	c.apiLevelVar = new(slog.LevelVar)
	if settings.WebServer.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}
	logger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", c.apiLevelVar)
	if err != nil {
		// Fall back to the default logger rather than failing startup.
		logger = slog.Default().With("service", "api")
		closeFunc = func() error { return nil }
	}
	c.apiLogger = logger
	c.apiLoggerClose = closeFunc

	c.Group = e.Group("/api/v1")
	c.Group.Use(c.IdentityMiddleware())
	c.initRoutes()

	e.GET("/healthz", c.HealthCheck)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return c, nil
}

// initRoutes registers all route groups.
func (c *Controller) initRoutes() {
	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"restaurant routes", c.initRestaurantRoutes},
		{"review routes", c.initReviewRoutes},
		{"follow routes", c.initFollowRoutes},
		{"notification routes", c.initNotificationRoutes},
		{"account routes", c.initAccountRoutes},
	}

	for _, initializer := range routeInitializers {
		initializer.fn()
		c.apiLogger.Debug("initialized routes", "group", initializer.name)
	}
}

// Shutdown closes resources held by the controller.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.apiLogger.Error("failed to close API log file", "error", err)
		}
	}
}

// HealthCheck reports service and database health.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(c.startTime).String(),
	}

	dbStatus := "connected"
	if _, err := c.DS.GetCuisines(); err != nil {
		dbStatus = "disconnected"
		response["status"] = "degraded"
		response["database_error"] = err.Error()
	}
	response["database_status"] = dbStatus

	return ctx.JSON(http.StatusOK, response)
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error
// tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs the error and returns a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	c.apiLogger.Error("API error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorResp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}
