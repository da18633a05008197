package domain

import (
	"strconv"
	"strings"
)

// Category is a contest tier; each tier has its own answer key.
type Category string

const (
	Category1 Category = "CAT 1"
	Category2 Category = "CAT 2"
	Category3 Category = "CAT 3"
)

// Categories lists every tier in report order.
var Categories = []Category{Category1, Category2, Category3}

// Valid reports whether c is a known tier.
func (c Category) Valid() bool {
	switch c {
	case Category1, Category2, Category3:
		return true
	}
	return false
}

// ParseCategory accepts "CAT 1", "cat1", "1" and similar spellings.
func ParseCategory(raw string) (Category, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.TrimPrefix(s, "CAT"))
	switch s {
	case "1":
		return Category1, nil
	case "2":
		return Category2, nil
	case "3":
		return Category3, nil
	}
	return "", Invalid("category", "unknown category %q", raw)
}

const (
	MinGrade = 1
	MaxGrade = 5
)

var gradeLabels = map[int]string{1: "1ro", 2: "2do", 3: "3ro", 4: "4to", 5: "5to"}

// GradeLabel returns the printed label of a grade, e.g. "5to".
func GradeLabel(grade int) string {
	if label, ok := gradeLabels[grade]; ok {
		return label
	}
	return strconv.Itoa(grade)
}

// ParseGrade accepts bare digits or the ordinal labels used on registration forms.
func ParseGrade(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for grade, label := range gradeLabels {
		if s == label {
			return grade, nil
		}
	}
	grade, err := strconv.Atoi(s)
	if err != nil || grade < MinGrade || grade > MaxGrade {
		return 0, Invalid("grade", "unknown grade %q", raw)
	}
	return grade, nil
}

// CategoryForGrade is the default grade to tier mapping.
func CategoryForGrade(grade int) (Category, error) {
	switch grade {
	case 5:
		return Category1, nil
	case 3, 4:
		return Category2, nil
	case 1, 2:
		return Category3, nil
	}
	return "", Invalid("grade", "grade %d has no category", grade)
}

// ResolveCategory returns the effective category of a participant. A non-empty
// override that differs from the default wins and is reported as overridden.
func ResolveCategory(grade int, override Category) (Category, bool, error) {
	def, err := CategoryForGrade(grade)
	if err != nil {
		return "", false, err
	}
	if override == "" || override == def {
		return def, false, nil
	}
	if !override.Valid() {
		return "", false, Invalid("category", "unknown category %q", string(override))
	}
	return override, true, nil
}
