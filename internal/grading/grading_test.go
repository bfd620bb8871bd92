package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		grade string
		want  string
	}{
		{GradeA, "Excellent"},
		{GradeB, "Good"},
		{GradeC, "Fair"},
		{GradeN, "Not Yet Graded"},
		{GradeP, "Pending"},
		{GradeZ, "Grade Pending"},
		{"X", "Unknown"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Display(tt.grade), "grade %q", tt.grade)
	}
}

func TestStarWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		grade  string
		weight float64
		graded bool
	}{
		{GradeA, 5, true},
		{GradeB, 4, true},
		{GradeC, 3, true},
		{GradeN, 0, false},
		{GradeP, 0, false},
		{GradeZ, 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		weight, ok := StarWeight(tt.grade)
		assert.Equal(t, tt.weight, weight, "grade %q weight", tt.grade)
		assert.Equal(t, tt.graded, ok, "grade %q graded", tt.grade)
		assert.Equal(t, tt.graded, Graded(tt.grade), "grade %q Graded()", tt.grade)
	}
}

func TestOrdinalHierarchy(t *testing.T) {
	t.Parallel()

	// A outranks B outranks C; pending grades all share a rank below C.
	assert.Greater(t, Ordinal(GradeA), Ordinal(GradeB))
	assert.Greater(t, Ordinal(GradeB), Ordinal(GradeC))
	assert.Greater(t, Ordinal(GradeC), Ordinal(GradeN))
	assert.Equal(t, Ordinal(GradeN), Ordinal(GradeP))
	assert.Equal(t, Ordinal(GradeP), Ordinal(GradeZ))
	assert.Equal(t, 0, Ordinal("unknown"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		oldGrade string
		newGrade string
		want     Shift
	}{
		{"same letter is no change", GradeA, GradeA, ShiftNone},
		{"b to a improves", GradeB, GradeA, ShiftImproved},
		{"c to b improves", GradeC, GradeB, ShiftImproved},
		{"a to b declines", GradeA, GradeB, ShiftDeclined},
		{"b to c declines", GradeB, GradeC, ShiftDeclined},
		{"a to c declines", GradeA, GradeC, ShiftDeclined},
		{"pending to graded improves", GradeZ, GradeC, ShiftImproved},
		{"graded to pending declines", GradeC, GradeP, ShiftDeclined},
		{"n to p is lateral", GradeN, GradeP, ShiftLateral},
		{"p to z is lateral", GradeP, GradeZ, ShiftLateral},
		{"unknown to unknown is lateral", "X", "Y", ShiftLateral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.oldGrade, tt.newGrade))
		})
	}
}
