package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/grading"
	"github.com/dinewatch/dinewatch-go/internal/rating"
)

const searchPageSize = 20

// initRestaurantRoutes registers search and detail endpoints.
func (c *Controller) initRestaurantRoutes() {
	c.Group.GET("/restaurants", c.SearchRestaurants)
	c.Group.GET("/restaurants/:camis", c.GetRestaurant)
	c.Group.GET("/cuisines", c.GetCuisines)
	c.Group.GET("/boroughs", c.GetBoroughs)
}

// RestaurantResult is one search result row.
type RestaurantResult struct {
	CAMIS    int64         `json:"camis"`
	Name     string        `json:"name"`
	Building string        `json:"building"`
	Street   string        `json:"street"`
	Boro     string        `json:"boro"`
	Zipcode  string        `json:"zipcode"`
	Cuisine  string        `json:"cuisine"`
	Rating   rating.Result `json:"rating"`
}

// SearchResponse is the paginated search result payload.
type SearchResponse struct {
	Results      []RestaurantResult `json:"results"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
	SortBy       string             `json:"sort_by"`
}

// SearchRestaurants handles GET /api/v1/restaurants. An entirely empty
// filter set returns an empty result rather than the whole table.
func (c *Controller) SearchRestaurants(ctx echo.Context) error {
	query := &datastore.SearchQuery{
		Text:    strings.TrimSpace(ctx.QueryParam("q")),
		Cuisine: strings.TrimSpace(ctx.QueryParam("cuisine")),
		Boro:    strings.TrimSpace(ctx.QueryParam("borough")),
		Zipcode: strings.TrimSpace(ctx.QueryParam("zipcode")),
	}
	// The UI filter dropdowns submit these placeholder values.
	if query.Cuisine == "All Cuisines" {
		query.Cuisine = ""
	}
	if query.Boro == "All Boroughs" {
		query.Boro = ""
	}

	sortBy := strings.TrimSpace(ctx.QueryParam("sort_by"))
	if sortBy == "" {
		sortBy = "name"
	}
	page, err := strconv.Atoi(ctx.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	summaries, err := c.DS.SearchRestaurants(query)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to search restaurants", http.StatusInternalServerError)
	}

	results := make([]RestaurantResult, 0, len(summaries))
	for i := range summaries {
		summary := &summaries[i]
		results = append(results, RestaurantResult{
			CAMIS:    summary.CAMIS,
			Name:     summary.Name,
			Building: summary.Building,
			Street:   summary.Street,
			Boro:     summary.Boro,
			Zipcode:  summary.Zipcode,
			Cuisine:  summary.CuisineDescription,
			Rating:   c.Ratings.FromSummary(summary),
		})
	}
	sortResults(results, sortBy)

	total := len(results)
	totalPages := (total + searchPageSize - 1) / searchPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * searchPageSize
	end := min(start+searchPageSize, total)

	return ctx.JSON(http.StatusOK, SearchResponse{
		Results:      results[start:end],
		Page:         page,
		TotalPages:   totalPages,
		TotalResults: total,
		SortBy:       sortBy,
	})
}

// gradeSortRank orders letter grades for the grade sort mode, best first.
var gradeSortRank = map[string]int{
	grading.GradeA: 1,
	grading.GradeB: 2,
	grading.GradeC: 3,
	grading.GradeN: 4,
	grading.GradeP: 5,
	grading.GradeZ: 6,
}

// sortResults orders search results by the requested mode. Unknown modes
// fall back to name order.
func sortResults(results []RestaurantResult, sortBy string) {
	switch sortBy {
	case "rating_high":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Rating.Stars > results[j].Rating.Stars
		})
	case "rating_low":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Rating.Stars < results[j].Rating.Stars
		})
	case "latest_inspection":
		sort.SliceStable(results, func(i, j int) bool {
			return searchSortDate(results[i]).After(searchSortDate(results[j]))
		})
	case "grade":
		sort.SliceStable(results, func(i, j int) bool {
			return searchGradeRank(results[i]) < searchGradeRank(results[j])
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Name < results[j].Name
		})
	}
}

func searchSortDate(r RestaurantResult) time.Time {
	if r.Rating.LatestInspectionDate == nil {
		return time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return *r.Rating.LatestInspectionDate
}

func searchGradeRank(r RestaurantResult) int {
	if rank, ok := gradeSortRank[r.Rating.Grade]; ok {
		return rank
	}
	return 7
}

// RestaurantDetail is the full payload for one restaurant page.
type RestaurantDetail struct {
	CAMIS            int64                  `json:"camis"`
	Name             string                 `json:"name"`
	Building         string                 `json:"building"`
	Street           string                 `json:"street"`
	Boro             string                 `json:"boro"`
	Zipcode          string                 `json:"zipcode"`
	Phone            string                 `json:"phone"`
	Cuisine          string                 `json:"cuisine"`
	Rating           rating.Result          `json:"rating"`
	Inspections      []datastore.Inspection `json:"inspections"`
	TotalInspections int64                  `json:"total_inspections"`
	Reviews          []datastore.Review     `json:"reviews"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsFollowed       bool                   `json:"is_followed"`
}

// parseCAMIS reads the camis path parameter.
func parseCAMIS(ctx echo.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param("camis"), 10, 64)
}

// GetRestaurant handles GET /api/v1/restaurants/:camis.
func (c *Controller) GetRestaurant(ctx echo.Context) error {
	camis, err := parseCAMIS(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid restaurant ID", http.StatusBadRequest)
	}

	latest, err := c.DS.GetLatestInspection(camis)
	if err != nil {
		if errors.Is(err, datastore.ErrInspectionNotFound) {
			return c.HandleError(ctx, err, "Restaurant not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load restaurant", http.StatusInternalServerError)
	}

	ratingResult, err := c.Ratings.Compute(camis, rating.ModeFull)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute rating", http.StatusInternalServerError)
	}

	inspections, err := c.DS.GetRestaurantInspections(camis, 10)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load inspections", http.StatusInternalServerError)
	}
	totalInspections, err := c.DS.CountInspections(camis)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count inspections", http.StatusInternalServerError)
	}
	reviews, err := c.DS.GetReviews(camis)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load reviews", http.StatusInternalServerError)
	}

	id := requestIdentity(ctx)
	isFavorited := false
	if _, err := c.DS.GetFavorite(id, camis); err == nil {
		isFavorited = true
	}
	isFollowed := false
	if _, err := c.DS.GetFollow(id, camis); err == nil {
		isFollowed = true
	}

	return ctx.JSON(http.StatusOK, RestaurantDetail{
		CAMIS:            camis,
		Name:             latest.Name,
		Building:         latest.Building,
		Street:           latest.Street,
		Boro:             latest.Boro,
		Zipcode:          latest.Zipcode,
		Phone:            latest.Phone,
		Cuisine:          latest.CuisineDescription,
		Rating:           ratingResult,
		Inspections:      inspections,
		TotalInspections: totalInspections,
		Reviews:          reviews,
		IsFavorited:      isFavorited,
		IsFollowed:       isFollowed,
	})
}

// GetCuisines handles GET /api/v1/cuisines.
func (c *Controller) GetCuisines(ctx echo.Context) error {
	cuisines, err := c.DS.GetCuisines()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load cuisines", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string][]string{"cuisines": cuisines})
}

// GetBoroughs handles GET /api/v1/boroughs.
func (c *Controller) GetBoroughs(ctx echo.Context) error {
	boroughs, err := c.DS.GetBoroughs()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load boroughs", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string][]string{"boroughs": boroughs})
}
