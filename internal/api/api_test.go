package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/rating"
)

type testEnv struct {
	e       *echo.Echo
	ds      datastore.Interface
	cookies []*http.Cookie
}

func setupTestAPI(t *testing.T) *testEnv {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.Type = "sqlite"
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	settings.Rating.WindowDays = 1095
	settings.Rating.CacheTTL = 300
	settings.Rating.CacheCleanup = 600
	settings.Session.Secret = "test-secret"
	settings.WebServer.Port = "8080"

	ds, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	e := echo.New()
	controller, err := New(e, ds, settings, rating.New(ds, settings), nil)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	return &testEnv{e: e, ds: ds}
}

// do performs a request, carrying the session cookie across calls.
func (env *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range env.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		env.cookies = cookies
	}
	return rec
}

func seedInspections(t *testing.T, ds datastore.Interface) {
	t.Helper()

	now := time.Now().UTC().Truncate(24 * time.Hour)
	jan := now.AddDate(0, 0, -200)
	jun := now.AddDate(0, 0, -60)
	mar := now.AddDate(0, 0, -150)
	score := 12

	require.NoError(t, ds.SaveInspections([]datastore.Inspection{
		{CAMIS: 41000001, Name: "Joe's Pizza", Boro: "Manhattan", Zipcode: "10014", CuisineDescription: "Pizza", Grade: "B", InspectionDate: &jan, Score: &score},
		{CAMIS: 41000001, Name: "Joe's Pizza", Boro: "Manhattan", Zipcode: "10014", CuisineDescription: "Pizza", Grade: "A", InspectionDate: &jun, Score: &score},
		{CAMIS: 41000002, Name: "Luigi's Pizza", Boro: "Brooklyn", Zipcode: "11201", CuisineDescription: "Pizza", Grade: "C", InspectionDate: &mar, Score: &score},
	}, 100))
}

func TestSearchEndpoint(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodGet, "/api/v1/restaurants?q=pizza", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, 1, resp.Page)

	// Default sort is by name.
	assert.Equal(t, "Joe's Pizza", resp.Results[0].Name)
	assert.Equal(t, "A", resp.Results[0].Rating.Grade)
	assert.Equal(t, 5.0, resp.Results[0].Rating.Stars)
}

func TestSearchSortByRating(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodGet, "/api/v1/restaurants?q=pizza&sort_by=rating_low", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Luigi's Pizza", resp.Results[0].Name)
}

func TestSearchEmptyQuery(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodGet, "/api/v1/restaurants", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestRestaurantDetail(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodGet, "/api/v1/restaurants/41000001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail RestaurantDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Joe's Pizza", detail.Name)
	assert.Equal(t, int64(2), detail.TotalInspections)
	assert.Len(t, detail.Inspections, 2)
	assert.False(t, detail.IsFollowed)

	// The full rating aggregates both graded inspections.
	assert.Equal(t, 2, detail.Rating.InspectionCount)
	assert.InDelta(t, 4.5, detail.Rating.Stars, 0.001)
}

func TestRestaurantDetailNotFound(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodGet, "/api/v1/restaurants/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowToggle(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodPost, "/api/v1/follows/toggle",
		`{"camis": 41000001, "restaurant_name": "Joe's Pizza"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_followed"])
	assert.Contains(t, resp["message"], "Now following Joe's Pizza")

	// The same session sees the follow on the detail page, with the
	// snapshot seeded from the latest inspection.
	rec = env.do(t, http.MethodGet, "/api/v1/follows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var follows struct {
		Follows []FollowEntry `json:"follows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &follows))
	require.Len(t, follows.Follows, 1)
	assert.Equal(t, "A", follows.Follows[0].Follow.LastKnownGrade)

	// Toggling again unfollows.
	rec = env.do(t, http.MethodPost, "/api/v1/follows/toggle",
		`{"camis": 41000001, "restaurant_name": "Joe's Pizza"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_followed"])
}

func TestFavoriteToggle(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	rec := env.do(t, http.MethodPost, "/api/v1/favorites/toggle",
		`{"camis": 41000002, "restaurant_name": "Luigi's Pizza"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_favorited"])

	rec = env.do(t, http.MethodPost, "/api/v1/favorites/toggle",
		`{"camis": 41000002}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_favorited"])
}

func TestUpdateFollowPreferences(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	env.do(t, http.MethodPost, "/api/v1/follows/toggle",
		`{"camis": 41000001, "restaurant_name": "Joe's Pizza"}`)

	rec := env.do(t, http.MethodPost, "/api/v1/follows/preferences",
		`{"camis": 41000001, "notification_type": "violations", "enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown types are rejected before the lookup.
	rec = env.do(t, http.MethodPost, "/api/v1/follows/preferences",
		`{"camis": 41000001, "notification_type": "bogus", "enabled": false}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unfollowed restaurants yield not found.
	rec = env.do(t, http.MethodPost, "/api/v1/follows/preferences",
		`{"camis": 41000002, "notification_type": "violations", "enabled": false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReviewValidation(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodPost, "/api/v1/reviews",
		`{"camis": 41000001, "rating": 9, "review_text": "great"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/reviews",
		`{"camis": 41000001, "rating": 4, "review_text": "Solid slice."}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "★★★★☆", resp["stars_display"])
}

func TestNotificationsEndpoint(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["unread"])
}

func TestAuthUserHeaderIdentity(t *testing.T) {
	env := setupTestAPI(t)
	seedInspections(t, env.ds)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/follows/toggle",
		strings.NewReader(`{"camis": 41000001, "restaurant_name": "Joe's Pizza"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(authUserHeader, "42")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different anonymous session does not see the user's follow.
	rec2 := env.do(t, http.MethodGet, "/api/v1/follows", "")
	require.Equal(t, http.StatusOK, rec2.Code)
	var follows struct {
		Follows []FollowEntry `json:"follows"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &follows))
	assert.Empty(t, follows.Follows)
}

func TestHealthz(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
