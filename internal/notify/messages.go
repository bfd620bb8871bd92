// messages.go: notification copy and violation text helpers
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dinewatch/dinewatch-go/internal/datastore"
)

// maxViolationLength caps violation descriptions embedded in notification
// messages.
const maxViolationLength = 120

// criticalFlagValue is the literal the source feed uses to mark critical
// violations.
const criticalFlagValue = "Critical"

// noViolationsText is the placeholder when an inspection reports none.
const noViolationsText = "No violations reported."

// outbreakKeywords flag violation descriptions that describe a public
// health hazard rather than an ordinary violation.
var outbreakKeywords = []string{
	"outbreak",
	"norovirus",
	"salmonella",
	"hepatitis",
	"shigella",
	"e. coli",
	"listeria",
	"foodborne illness",
	"contagious disease",
	"infectious disease",
	"health outbreak",
	"disease outbreak",
	"illness outbreak",
	"public health hazard",
	"unsafe food",
	"contaminated food",
	"epidemic",
	"pandemic",
}

// containsOutbreakKeyword reports whether a violation description mentions
// any outbreak keyword, case-insensitively.
func containsOutbreakKeyword(description string) bool {
	lowered := strings.ToLower(description)
	for _, keyword := range outbreakKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// truncateViolation limits a violation description for message embedding.
func truncateViolation(description string) string {
	if description == "" {
		return noViolationsText
	}
	runes := []rune(description)
	if len(runes) <= maxViolationLength {
		return description
	}
	return string(runes[:maxViolationLength]) + "..."
}

// gradeImprovedNotification builds the notification for a grade moving up
// the hierarchy.
func gradeImprovedNotification(restaurantName, oldGrade, newGrade string) *datastore.Notification {
	if oldGrade == "" {
		oldGrade = "No grade"
	}
	return &datastore.Notification{
		Type:  datastore.NotificationScoreImprovement,
		Title: fmt.Sprintf("%s grade improved!", restaurantName),
		Message: fmt.Sprintf(
			"%s improved from grade %s to %s. This means the restaurant's health standards have gotten better. Previous grade: %s. New grade: %s.",
			restaurantName, oldGrade, newGrade, oldGrade, newGrade),
	}
}

// gradeDeclinedNotification builds the notification for a grade moving
// down the hierarchy.
func gradeDeclinedNotification(restaurantName, oldGrade, newGrade string) *datastore.Notification {
	if oldGrade == "" {
		oldGrade = "No grade"
	}
	return &datastore.Notification{
		Type:  datastore.NotificationScoreDecline,
		Title: fmt.Sprintf("%s grade declined", restaurantName),
		Message: fmt.Sprintf(
			"%s declined from grade %s to %s. This may indicate a drop in health standards. Previous grade: %s. New grade: %s.",
			restaurantName, oldGrade, newGrade, oldGrade, newGrade),
	}
}

// gradeChangedNotification builds the notification for a lateral grade
// change with no rank shift.
func gradeChangedNotification(restaurantName, oldGrade, newGrade string) *datastore.Notification {
	if oldGrade == "" {
		oldGrade = "No grade"
	}
	return &datastore.Notification{
		Type:  datastore.NotificationGradeChange,
		Title: fmt.Sprintf("%s grade changed", restaurantName),
		Message: fmt.Sprintf(
			"%s received a new grade: %s (previously %s). Check the inspection details for more information.",
			restaurantName, newGrade, oldGrade),
	}
}

// newInspectionNotification summarizes a fresh inspection.
func newInspectionNotification(restaurantName string, inspection *datastore.Inspection) *datastore.Notification {
	dateText := "Unknown date"
	if inspection.InspectionDate != nil {
		dateText = inspection.InspectionDate.Format("January 2, 2006")
	}
	gradeText := inspection.Grade
	if gradeText == "" {
		gradeText = "Pending"
	}
	return &datastore.Notification{
		Type:  datastore.NotificationNewInspection,
		Title: fmt.Sprintf("New inspection at %s", restaurantName),
		Message: fmt.Sprintf(
			"A new health inspection was completed on %s. Grade received: %s. Violations noted: %s See the inspection details for the full report.",
			dateText, gradeText, truncateViolation(inspection.ViolationDescription)),
	}
}

// criticalViolationNotification reports a critical-flagged violation.
func criticalViolationNotification(restaurantName string, inspection *datastore.Inspection) *datastore.Notification {
	code := inspection.ViolationCode
	if code == "" {
		code = "N/A"
	}
	description := inspection.ViolationDescription
	if description == "" {
		description = "No description."
	}
	return &datastore.Notification{
		Type:  datastore.NotificationViolationAdded,
		Title: fmt.Sprintf("Critical violation at %s", restaurantName),
		Message: fmt.Sprintf(
			"A critical health violation was reported: [Code: %s] %s This violation is considered critical and may impact health safety.",
			code, truncateViolation(description)),
	}
}

// outbreakNotification reports an outbreak-keyword match.
func outbreakNotification(restaurantName string, inspection *datastore.Inspection) *datastore.Notification {
	return &datastore.Notification{
		Type:  datastore.NotificationHealthOutbreak,
		Title: fmt.Sprintf("Health outbreak alert at %s", restaurantName),
		Message: fmt.Sprintf(
			"A potential health outbreak or serious foodborne illness was reported: %s This may indicate a public health risk. Please review the inspection details for more information.",
			truncateViolation(inspection.ViolationDescription)),
	}
}

// minDate stands in for a null snapshot date so any real inspection date
// compares as newer.
var minDate = time.Time{}
