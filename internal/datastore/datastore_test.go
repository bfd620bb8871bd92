package datastore

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/identity"
)

func setupTestStore(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.Type = "sqlite"
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	ds, err := New(settings)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestNewRejectsUnsupportedDatabase(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = "mongodb"

	_, err := New(settings)
	assert.ErrorIs(t, err, ErrUnsupportedDatabase)
}

func TestGetLatestInspection(t *testing.T) {
	ds := setupTestStore(t)

	inspections := []Inspection{
		{CAMIS: 1, Name: "Pizza Place", Grade: "B", InspectionDate: date(2024, time.January, 10)},
		{CAMIS: 1, Name: "Pizza Place", Grade: "A", InspectionDate: date(2024, time.June, 5)},
		{CAMIS: 2, Name: "Taco Spot", Grade: "C", InspectionDate: date(2024, time.March, 1)},
	}
	require.NoError(t, ds.SaveInspections(inspections, 100))

	latest, err := ds.GetLatestInspection(1)
	require.NoError(t, err)
	assert.Equal(t, "A", latest.Grade)

	_, err = ds.GetLatestInspection(999)
	assert.ErrorIs(t, err, ErrInspectionNotFound)
}

func TestGetLatestInspectionDateTieBreaksOnID(t *testing.T) {
	ds := setupTestStore(t)

	same := date(2024, time.June, 5)
	require.NoError(t, ds.SaveInspections([]Inspection{
		{CAMIS: 1, Grade: "B", InspectionDate: same},
		{CAMIS: 1, Grade: "A", InspectionDate: same},
	}, 100))

	latest, err := ds.GetLatestInspection(1)
	require.NoError(t, err)
	// Same date: the higher row ID, the most recently loaded record, wins.
	assert.Equal(t, "A", latest.Grade)
}

func TestGetLatestInspectionSince(t *testing.T) {
	ds := setupTestStore(t)

	require.NoError(t, ds.SaveInspections([]Inspection{
		{CAMIS: 1, Grade: "B", InspectionDate: date(2024, time.January, 10)},
		{CAMIS: 1, Grade: "A", InspectionDate: date(2024, time.June, 5)},
	}, 100))

	// Cutoff before the newest row finds it.
	latest, err := ds.GetLatestInspectionSince(1, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "A", latest.Grade)

	// Cutoff after every row finds nothing.
	_, err = ds.GetLatestInspectionSince(1, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInspectionNotFound)
}

func TestGetGradedInspections(t *testing.T) {
	ds := setupTestStore(t)

	require.NoError(t, ds.SaveInspections([]Inspection{
		{CAMIS: 1, Grade: "A", InspectionDate: date(2024, time.January, 10)},
		{CAMIS: 1, Grade: "Z", InspectionDate: date(2024, time.February, 10)},
		{CAMIS: 1, Grade: "", InspectionDate: date(2024, time.March, 10)},
		{CAMIS: 1, Grade: "B"}, // no date
		{CAMIS: 2, Grade: "C", InspectionDate: date(2024, time.April, 10)},
	}, 100))

	graded, err := ds.GetGradedInspections(1)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Equal(t, "A", graded[0].Grade)
}

func TestSearchRestaurants(t *testing.T) {
	ds := setupTestStore(t)

	require.NoError(t, ds.SaveInspections([]Inspection{
		{CAMIS: 1, Name: "Joe's Pizza", CuisineDescription: "Pizza", Boro: "Manhattan", Zipcode: "10001", Grade: "B", InspectionDate: date(2024, time.January, 10)},
		{CAMIS: 1, Name: "Joe's Pizza", CuisineDescription: "Pizza", Boro: "Manhattan", Zipcode: "10001", Grade: "A", InspectionDate: date(2024, time.June, 5)},
		{CAMIS: 2, Name: "Luigi's Pizza", CuisineDescription: "Pizza", Boro: "Brooklyn", Zipcode: "11201", Grade: "C", InspectionDate: date(2024, time.March, 1)},
		{CAMIS: 3, Name: "Som Tam House", CuisineDescription: "Thai", Boro: "Queens", Zipcode: "11372", Grade: "A", InspectionDate: date(2024, time.March, 1)},
	}, 100))

	// Empty filter set matches nothing.
	empty, err := ds.SearchRestaurants(&SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Name matches collapse to one row per restaurant with the latest grade.
	results, err := ds.SearchRestaurants(&SearchQuery{Text: "pizza"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	byCAMIS := map[int64]RestaurantSummary{}
	for _, r := range results {
		byCAMIS[r.CAMIS] = r
	}
	assert.Equal(t, "A", byCAMIS[1].LatestGrade)
	assert.Equal(t, "C", byCAMIS[2].LatestGrade)

	// Case-insensitive borough filter.
	brooklyn, err := ds.SearchRestaurants(&SearchQuery{Text: "pizza", Boro: "brooklyn"})
	require.NoError(t, err)
	require.Len(t, brooklyn, 1)
	assert.Equal(t, int64(2), brooklyn[0].CAMIS)

	// Cuisine text also matches the free text filter.
	thai, err := ds.SearchRestaurants(&SearchQuery{Text: "thai"})
	require.NoError(t, err)
	require.Len(t, thai, 1)
	assert.Equal(t, "Som Tam House", thai[0].Name)
}

func TestGetCuisinesAndBoroughs(t *testing.T) {
	ds := setupTestStore(t)

	require.NoError(t, ds.SaveInspections([]Inspection{
		{CAMIS: 1, CuisineDescription: "Pizza", Boro: "Manhattan"},
		{CAMIS: 2, CuisineDescription: "Thai", Boro: "Queens"},
		{CAMIS: 3, CuisineDescription: "Pizza", Boro: "Manhattan"},
		{CAMIS: 4, CuisineDescription: "", Boro: ""},
	}, 100))

	cuisines, err := ds.GetCuisines()
	require.NoError(t, err)
	assert.Equal(t, []string{"Pizza", "Thai"}, cuisines)

	boroughs, err := ds.GetBoroughs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Manhattan", "Queens"}, boroughs)
}

func TestFavoritesPerIdentity(t *testing.T) {
	ds := setupTestStore(t)

	session := identity.NewSession("session-a")
	user := identity.NewUser(7)

	fav1, err := NewFavorite(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFavorite(fav1))

	fav2, err := NewFavorite(user, 2, "Luigi's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFavorite(fav2))

	// Each identity only sees its own rows.
	sessionFavs, err := ds.GetFavorites(session)
	require.NoError(t, err)
	require.Len(t, sessionFavs, 1)
	assert.Equal(t, int64(1), sessionFavs[0].CAMIS)

	userFavs, err := ds.GetFavorites(user)
	require.NoError(t, err)
	require.Len(t, userFavs, 1)
	assert.Equal(t, int64(2), userFavs[0].CAMIS)

	// Lookup misses return the sentinel.
	_, err = ds.GetFavorite(session, 999)
	assert.ErrorIs(t, err, ErrFavoriteNotFound)

	require.NoError(t, ds.DeleteFavorite(session, 1))
	after, err := ds.GetFavorites(session)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestFavoriteRejectsInvalidIdentity(t *testing.T) {
	ds := setupTestStore(t)

	_, err := ds.GetFavorites(identity.Identity{})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestFollowLifecycle(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(follow))
	require.NotZero(t, follow.ID)

	// New follows default all notification types on.
	stored, err := ds.GetFollow(session, 1)
	require.NoError(t, err)
	assert.True(t, stored.NotifyGradeChanges)
	assert.True(t, stored.NotifyNewInspections)
	assert.True(t, stored.NotifyViolations)

	stored.NotifyViolations = false
	stored.LastKnownGrade = "A"
	require.NoError(t, ds.UpdateFollow(stored))

	updated, err := ds.GetFollow(session, 1)
	require.NoError(t, err)
	assert.False(t, updated.NotifyViolations)
	assert.Equal(t, "A", updated.LastKnownGrade)
}

func TestDeleteFollowRemovesNotifications(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(follow))

	require.NoError(t, ds.SaveNotification(&Notification{
		FollowID: follow.ID,
		Type:     NotificationNewInspection,
		Title:    "New inspection",
		Message:  "test",
	}))

	require.NoError(t, ds.DeleteFollow(session, 1))

	_, err = ds.GetFollow(session, 1)
	assert.ErrorIs(t, err, ErrFollowNotFound)

	notifications, err := ds.GetNotifications(session, 0)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestAdoptSessionFollows(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")
	user := identity.NewUser(42)

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	follow.LastKnownGrade = "B"
	require.NoError(t, ds.SaveFollow(follow))

	fav, err := NewFavorite(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFavorite(fav))

	require.NoError(t, ds.AdoptSessionFollows("session-a", 42))

	// The user owns the rows now, snapshot intact.
	adopted, err := ds.GetFollow(user, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", adopted.LastKnownGrade)

	userFavs, err := ds.GetFavorites(user)
	require.NoError(t, err)
	assert.Len(t, userFavs, 1)

	// The session no longer sees them.
	_, err = ds.GetFollow(session, 1)
	assert.ErrorIs(t, err, ErrFollowNotFound)
}

func TestAdoptSessionFollowsKeepsUserRowOnCollision(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")
	user := identity.NewUser(42)

	// Followed on one device as the user, on another anonymously.
	userFollow, err := NewFollow(user, 1, "Joe's Pizza")
	require.NoError(t, err)
	userFollow.LastKnownGrade = "A"
	require.NoError(t, ds.SaveFollow(userFollow))

	sessionFollow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	sessionFollow.LastKnownGrade = "B"
	require.NoError(t, ds.SaveFollow(sessionFollow))
	require.NoError(t, ds.SaveNotification(&Notification{
		FollowID: sessionFollow.ID,
		Type:     NotificationNewInspection,
		Title:    "New inspection",
		Message:  "test",
	}))

	sessionOnlyFollow, err := NewFollow(session, 2, "Luigi's")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(sessionOnlyFollow))

	userFav, err := NewFavorite(user, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFavorite(userFav))
	sessionFav, err := NewFavorite(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFavorite(sessionFav))

	require.NoError(t, ds.AdoptSessionFollows("session-a", 42))

	// The user's existing follow survives with its snapshot; the anonymous
	// duplicate and its notifications are gone.
	follows, err := ds.GetFollows(user)
	require.NoError(t, err)
	require.Len(t, follows, 2)
	kept, err := ds.GetFollow(user, 1)
	require.NoError(t, err)
	assert.Equal(t, userFollow.ID, kept.ID)
	assert.Equal(t, "A", kept.LastKnownGrade)

	all, err := ds.GetAllFollows()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := ds.CountUnreadNotifications(user)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The non-colliding follow was adopted normally.
	_, err = ds.GetFollow(user, 2)
	require.NoError(t, err)

	favs, err := ds.GetFavorites(user)
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}

func TestNotificationsReadTracking(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(follow))

	for range 3 {
		require.NoError(t, ds.SaveNotification(&Notification{
			FollowID: follow.ID,
			Type:     NotificationNewInspection,
			Title:    "New inspection",
			Message:  "test",
		}))
	}

	unread, err := ds.CountUnreadNotifications(session)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, ds.MarkNotificationsRead(session))

	unread, err = ds.CountUnreadNotifications(session)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestSaveNotificationRequiresFollow(t *testing.T) {
	ds := setupTestStore(t)

	err := ds.SaveNotification(&Notification{Type: NotificationNewInspection})
	assert.Error(t, err)
}

func TestDeleteNotificationsOlderThan(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(follow))

	now := time.Now()
	require.NoError(t, ds.SaveNotification(&Notification{
		FollowID: follow.ID, Type: NotificationNewInspection,
		Title: "old", Message: "m", CreatedAt: now.AddDate(0, 0, -120),
	}))
	require.NoError(t, ds.SaveNotification(&Notification{
		FollowID: follow.ID, Type: NotificationNewInspection,
		Title: "fresh", Message: "m", CreatedAt: now.AddDate(0, 0, -5),
	}))

	deleted, err := ds.DeleteNotificationsOlderThan(now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := ds.GetNotifications(session, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Title)
}

func TestReviews(t *testing.T) {
	ds := setupTestStore(t)

	review := &Review{
		CAMIS:          1,
		RestaurantName: "Joe's Pizza",
		ReviewerName:   "Sam",
		Rating:         4,
		ReviewText:     "Solid slice.",
	}
	require.NoError(t, ds.SaveReview(review))
	require.NotZero(t, review.ID)

	reviews, err := ds.GetReviews(1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "★★★★☆", reviews[0].StarsDisplay())
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ds := setupTestStore(t)
	session := identity.NewSession("session-a")

	follow, err := NewFollow(session, 1, "Joe's Pizza")
	require.NoError(t, err)
	require.NoError(t, ds.SaveFollow(follow))

	err = ds.Transaction(func(tx *DataStore) error {
		if err := tx.SaveNotification(&Notification{
			FollowID: follow.ID, Type: NotificationNewInspection, Title: "t", Message: "m",
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	notifications, err := ds.GetNotifications(session, 0)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestSlogWriterFormatsMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &slogWriter{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	w.Printf("SLOW SQL >= %v [rows:%d]", time.Second, 7)

	assert.Contains(t, buf.String(), "SLOW SQL >= 1s [rows:7]")
}
