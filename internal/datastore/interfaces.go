// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/identity"
)

// Sentinel errors for store lookups.
var (
	ErrInspectionNotFound  = errors.Newf("inspection not found").Component("datastore").Category(errors.CategoryNotFound).Build()
	ErrFollowNotFound      = errors.Newf("follow not found").Component("datastore").Category(errors.CategoryNotFound).Build()
	ErrFavoriteNotFound    = errors.Newf("favorite not found").Component("datastore").Category(errors.CategoryNotFound).Build()
	ErrInvalidIdentity     = errors.Newf("invalid follower identity").Component("datastore").Category(errors.CategoryValidation).Build()
	ErrDatabaseNotOpen     = errors.Newf("database connection is not initialized").Component("datastore").Category(errors.CategoryDatabase).Build()
	ErrUnsupportedDatabase = errors.Newf("no supported database enabled in settings").Component("datastore").Category(errors.CategoryConfiguration).Build()
)

// SearchQuery carries restaurant search filters. All filters are optional;
// an entirely empty query matches nothing, mirroring the search page.
type SearchQuery struct {
	Text    string // matches restaurant name or cuisine, case-insensitive
	Cuisine string
	Boro    string
	Zipcode string
	Limit   int
}

// RestaurantSummary is one collapsed search result row: the identifying
// fields of a restaurant plus its most recent inspection, used by the fast
// rating path.
type RestaurantSummary struct {
	CAMIS                int64
	Name                 string
	Building             string
	Street               string
	Boro                 string
	Zipcode              string
	CuisineDescription   string
	LatestGrade          string
	LatestInspectionDate *time.Time
}

// Interface abstracts the underlying database implementation and defines
// the operations the application performs against it.
type Interface interface {
	Open() error
	Close() error
	// Transaction runs fn against a store bound to a database
	// transaction, committing on nil and rolling back on error.
	Transaction(fn func(tx *DataStore) error) error

	// Inspections
	SaveInspections(batch []Inspection, batchSize int) error
	DeleteAllInspections() error
	GetLatestInspection(camis int64) (Inspection, error)
	GetLatestInspectionSince(camis int64, cutoff time.Time) (Inspection, error)
	GetGradedInspections(camis int64) ([]Inspection, error)
	GetRestaurantInspections(camis int64, limit int) ([]Inspection, error)
	CountInspections(camis int64) (int64, error)
	SearchRestaurants(query *SearchQuery) ([]RestaurantSummary, error)
	GetCuisines() ([]string, error)
	GetBoroughs() ([]string, error)

	// Reviews
	SaveReview(review *Review) error
	GetReviews(camis int64) ([]Review, error)

	// Favorites
	GetFavorite(id identity.Identity, camis int64) (*Favorite, error)
	SaveFavorite(favorite *Favorite) error
	DeleteFavorite(id identity.Identity, camis int64) error
	GetFavorites(id identity.Identity) ([]Favorite, error)

	// Follows
	GetFollow(id identity.Identity, camis int64) (*Follow, error)
	SaveFollow(follow *Follow) error
	UpdateFollow(follow *Follow) error
	DeleteFollow(id identity.Identity, camis int64) error
	GetFollows(id identity.Identity) ([]Follow, error)
	GetAllFollows() ([]Follow, error)
	AdoptSessionFollows(sessionToken string, userID uint) error

	// Notifications
	SaveNotification(notification *Notification) error
	GetNotifications(id identity.Identity, limit int) ([]Notification, error)
	MarkNotificationsRead(id identity.Identity) error
	CountUnreadNotifications(id identity.Identity) (int64, error)
	DeleteNotificationsOlderThan(cutoff time.Time) (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new store instance based on the provided settings.
func New(settings *conf.Settings) (Interface, error) {
	switch settings.Database.Type {
	case "sqlite":
		return &SQLiteStore{Settings: settings}, nil
	case "mysql":
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, ErrUnsupportedDatabase
	}
}

// Transaction runs fn inside a database transaction. The callback receives
// a store bound to the transaction so all data methods participate in it.
func (ds *DataStore) Transaction(fn func(tx *DataStore) error) error {
	if ds.DB == nil {
		return ErrDatabaseNotOpen
	}
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}

// identityScope returns a gorm scope restricting a query to rows owned by
// the given follower identity.
func identityScope(id identity.Identity) (func(*gorm.DB) *gorm.DB, error) {
	if !id.Valid() {
		return nil, ErrInvalidIdentity
	}
	if userID, ok := id.UserID(); ok {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", userID)
		}, nil
	}
	token, _ := id.SessionToken()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("session_key = ? AND user_id IS NULL", token)
	}, nil
}

// applyIdentity fills the owning identity columns of a row.
func applyIdentity(id identity.Identity, sessionKey *string, userID **uint) error {
	if !id.Valid() {
		return ErrInvalidIdentity
	}
	if uid, ok := id.UserID(); ok {
		*sessionKey = ""
		owner := uid
		*userID = &owner
		return nil
	}
	token, _ := id.SessionToken()
	*sessionKey = token
	*userID = nil
	return nil
}
