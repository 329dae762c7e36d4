package models

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Student is a saver registered at the school.
type Student struct {
	ID         string    `db:"id" json:"id"`
	NIS        string    `db:"nis" json:"nis"`
	Name       string    `db:"name" json:"name"`
	ClassLabel string    `db:"class_label" json:"class_label"`
	Grade      int       `db:"grade" json:"grade"`
	Category   string    `db:"category" json:"category,omitempty"`
	Balance    int64     `db:"balance" json:"balance"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	Grade      int
	ClassLabel string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// NormalizeClassLabel trims and upper-cases a class label ("4a " -> "4A").
func NormalizeClassLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// GradeFromClass derives the grade from the leading digits of a class label.
// It returns 0 when the label does not start with a digit.
func GradeFromClass(label string) int {
	label = NormalizeClassLabel(label)
	end := 0
	for end < len(label) && unicode.IsDigit(rune(label[end])) {
		end++
	}
	if end == 0 {
		return 0
	}
	grade, err := strconv.Atoi(label[:end])
	if err != nil {
		return 0
	}
	return grade
}
