// Package grading holds the shared letter grade tables used by the rating
// engine and the notification generator: display labels, star weights, and
// the ordinal hierarchy that decides whether a grade change is an
// improvement or a decline.
package grading

// Letter grades that appear in the NYC inspection feed. N, P and Z mark
// inspections that have not yet produced a final grade.
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeN = "N"
	GradeP = "P"
	GradeZ = "Z"
)

// GradeNotAvailable is the placeholder grade when no graded inspection
// exists for a restaurant.
const GradeNotAvailable = "N/A"

// gradeDisplay maps a letter grade to its human readable label.
var gradeDisplay = map[string]string{
	GradeA: "Excellent",
	GradeB: "Good",
	GradeC: "Fair",
	GradeN: "Not Yet Graded",
	GradeP: "Pending",
	GradeZ: "Grade Pending",
}

// Display returns the human readable label for a letter grade.
func Display(grade string) string {
	if label, ok := gradeDisplay[grade]; ok {
		return label
	}
	return "Unknown"
}

// starWeights maps graded letters to their star contribution in the full
// rating computation. Only A, B and C carry weight; pending grades are
// excluded from aggregation entirely.
var starWeights = map[string]float64{
	GradeA: 5,
	GradeB: 4,
	GradeC: 3,
}

// StarWeight returns the star weight of a graded letter and whether the
// letter participates in rating aggregation at all.
func StarWeight(grade string) (float64, bool) {
	w, ok := starWeights[grade]
	return w, ok
}

// Graded reports whether the grade is one of the aggregatable letters.
func Graded(grade string) bool {
	_, ok := starWeights[grade]
	return ok
}

// hierarchy ranks grades for change classification. Pending grades share
// the same rank so a move between them is a lateral change, not an
// improvement or decline. Unknown or missing grades rank below everything.
var hierarchy = map[string]int{
	GradeA: 4,
	GradeB: 3,
	GradeC: 2,
	GradeN: 1,
	GradeP: 1,
	GradeZ: 1,
}

// Ordinal returns the hierarchy rank of a grade, 0 for unknown or missing.
func Ordinal(grade string) int {
	return hierarchy[grade]
}

// Shift classifies the direction of a grade change.
type Shift int

const (
	// ShiftNone means the letters are identical, nothing changed.
	ShiftNone Shift = iota
	// ShiftImproved means the new grade ranks above the old one.
	ShiftImproved
	// ShiftDeclined means the new grade ranks below the old one.
	ShiftDeclined
	// ShiftLateral means the letters differ but share a rank.
	ShiftLateral
)

// Classify compares an old and a new letter grade and returns the shift
// direction. Identical letters yield ShiftNone.
func Classify(oldGrade, newGrade string) Shift {
	if oldGrade == newGrade {
		return ShiftNone
	}
	oldRank := Ordinal(oldGrade)
	newRank := Ordinal(newGrade)
	switch {
	case newRank > oldRank:
		return ShiftImproved
	case newRank < oldRank:
		return ShiftDeclined
	default:
		return ShiftLateral
	}
}
