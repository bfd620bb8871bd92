// model.go this code defines the data model for the application
package datastore

import "time"

// Inspection represents a single health inspection record from the NYC
// feed. Many rows exist per restaurant, one per inspection event. Rows are
// treated as immutable once loaded.
type Inspection struct {
	ID                   uint       `gorm:"primaryKey"`
	CAMIS                int64      `gorm:"column:camis;index:idx_inspections_camis;index:idx_inspections_camis_date"`
	Name                 string     `gorm:"column:name;index:idx_inspections_name"` // DBA in the source feed
	Boro                 string     `gorm:"column:boro"`
	Building             string     `gorm:"column:building"`
	Street               string     `gorm:"column:street"`
	Zipcode              string     `gorm:"column:zipcode"`
	Phone                string     `gorm:"column:phone"`
	CuisineDescription   string     `gorm:"column:cuisine_description;index:idx_inspections_cuisine"`
	InspectionDate       *time.Time `gorm:"column:inspection_date;index:idx_inspections_date;index:idx_inspections_camis_date"`
	Action               string     `gorm:"column:action;type:text"`
	ViolationCode        string     `gorm:"column:violation_code"`
	ViolationDescription string     `gorm:"column:violation_description;type:text"`
	CriticalFlag         string     `gorm:"column:critical_flag"`
	Score                *int       `gorm:"column:score"`
	Grade                string     `gorm:"column:grade;type:varchar(5)"`
	GradeDate            *time.Time `gorm:"column:grade_date"`
	RecordDate           *time.Time `gorm:"column:record_date"`
	InspectionType       string     `gorm:"column:inspection_type"`
	Latitude             float64    `gorm:"column:latitude"`
	Longitude            float64    `gorm:"column:longitude"`
}

// Review represents a user submitted restaurant review.
type Review struct {
	ID             uint      `gorm:"primaryKey"`
	CAMIS          int64     `gorm:"column:camis;index:idx_reviews_camis"`
	RestaurantName string    `gorm:"column:restaurant_name"`
	ReviewerName   string    `gorm:"column:reviewer_name"`
	Rating         int       `gorm:"column:rating"` // 1-5 stars
	ReviewText     string    `gorm:"column:review_text;type:text"`
	CreatedAt      time.Time `gorm:"index"`
}

// StarsDisplay renders the review rating as filled and empty stars.
func (r *Review) StarsDisplay() string {
	stars := r.Rating
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	display := ""
	for i := 0; i < stars; i++ {
		display += "★"
	}
	for i := stars; i < 5; i++ {
		display += "☆"
	}
	return display
}

// Favorite marks a restaurant as a favorite of one follower identity.
// Exactly one of SessionKey or UserID is set.
type Favorite struct {
	ID             uint      `gorm:"primaryKey"`
	SessionKey     string    `gorm:"column:session_key;index:idx_favorites_session"`
	UserID         *uint     `gorm:"column:user_id;index:idx_favorites_user"`
	CAMIS          int64     `gorm:"column:camis;index:idx_favorites_camis"`
	RestaurantName string    `gorm:"column:restaurant_name"`
	CreatedAt      time.Time
}

// Follow is a durable subscription of one follower identity to change
// notifications for one restaurant. It doubles as the change detection
// snapshot: LastKnownGrade and LastInspectionDate record the last state
// the follower was notified about. At most one Follow exists per
// (identity, restaurant) pair.
type Follow struct {
	ID             uint   `gorm:"primaryKey"`
	SessionKey     string `gorm:"column:session_key;index:idx_follows_session"`
	UserID         *uint  `gorm:"column:user_id;index:idx_follows_user"`
	CAMIS          int64  `gorm:"column:camis;index:idx_follows_camis"`
	RestaurantName string `gorm:"column:restaurant_name"`

	LastKnownGrade     string     `gorm:"column:last_known_grade;type:varchar(5)"`
	LastInspectionDate *time.Time `gorm:"column:last_inspection_date"`

	NotifyGradeChanges   bool `gorm:"column:notify_grade_changes;default:true"`
	NotifyNewInspections bool `gorm:"column:notify_new_inspections;default:true"`
	NotifyViolations     bool `gorm:"column:notify_violations;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Notifications []Notification `gorm:"foreignKey:FollowID;constraint:OnDelete:CASCADE"`
}

// Notification types emitted by the change detection generator.
const (
	NotificationGradeChange      = "grade_change"
	NotificationNewInspection    = "new_inspection"
	NotificationViolationAdded   = "violation_added"
	NotificationScoreImprovement = "score_improvement"
	NotificationScoreDecline     = "score_decline"
	NotificationHealthOutbreak   = "health_outbreak"
)

// Notification is a user facing notification row produced by the change
// detection generator. Rows are append only until the retention sweep
// removes them.
type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	FollowID  uint      `gorm:"column:follow_id;index:idx_notifications_follow;not null"`
	Type      string    `gorm:"column:type;type:varchar(32);index:idx_notifications_type"`
	Title     string    `gorm:"column:title"`
	Message   string    `gorm:"column:message;type:text"`
	IsRead    bool      `gorm:"column:is_read;default:false"`
	CreatedAt time.Time `gorm:"index:idx_notifications_created"`
}
