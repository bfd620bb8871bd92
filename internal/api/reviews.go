package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dinewatch/dinewatch-go/internal/datastore"
)

// initReviewRoutes registers review endpoints.
func (c *Controller) initReviewRoutes() {
	c.Group.POST("/reviews", c.CreateReview)
	c.Group.GET("/restaurants/:camis/reviews", c.GetRestaurantReviews)
}

// CreateReviewRequest is the body for POST /api/v1/reviews.
type CreateReviewRequest struct {
	CAMIS          int64  `json:"camis"`
	RestaurantName string `json:"restaurant_name"`
	ReviewerName   string `json:"reviewer_name"`
	Rating         int    `json:"rating"`
	ReviewText     string `json:"review_text"`
}

// CreateReview handles POST /api/v1/reviews.
func (c *Controller) CreateReview(ctx echo.Context) error {
	var req CreateReviewRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if req.CAMIS == 0 || req.Rating == 0 || strings.TrimSpace(req.ReviewText) == "" {
		return c.HandleError(ctx, nil, "Missing camis, rating or review text", http.StatusBadRequest)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.HandleError(ctx, nil, "Rating must be between 1 and 5", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.ReviewerName) == "" {
		req.ReviewerName = "Anonymous"
	}

	review := &datastore.Review{
		CAMIS:          req.CAMIS,
		RestaurantName: req.RestaurantName,
		ReviewerName:   req.ReviewerName,
		Rating:         req.Rating,
		ReviewText:     req.ReviewText,
	}
	if err := c.DS.SaveReview(review); err != nil {
		return c.HandleError(ctx, err, "Failed to save review", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"id":            review.ID,
		"stars_display": review.StarsDisplay(),
	})
}

// GetRestaurantReviews handles GET /api/v1/restaurants/:camis/reviews.
func (c *Controller) GetRestaurantReviews(ctx echo.Context) error {
	camis, err := parseCAMIS(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid restaurant ID", http.StatusBadRequest)
	}
	reviews, err := c.DS.GetReviews(camis)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load reviews", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"reviews": reviews,
		"total":   len(reviews),
	})
}
