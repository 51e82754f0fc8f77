// Package recipe holds the in-memory recipe corpus and answers filtered
// queries over it. An Index is read-only once built and may be shared by any
// number of goroutines.
package recipe

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned for malformed filters such as an unknown category.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound is returned when a recipe, meal, user or swap target does not exist.
	ErrNotFound = errors.New("not found")
)

// Category is the course role of a recipe.
type Category string

const (
	Appetizer Category = "appetizer"
	Main      Category = "main"
	Dessert   Category = "dessert"
)

// Categories lists every category in course order.
var Categories = []Category{Appetizer, Main, Dessert}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Appetizer, Main, Dessert:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown category %q (use appetizer, main or dessert)", ErrInvalidQuery, s)
}

// CategoryFromIndex maps the dataset's numeric category (0/1/2) to a Category.
func CategoryFromIndex(i int) (Category, error) {
	if i < 0 || i >= len(Categories) {
		return "", fmt.Errorf("%w: category index %d out of range", ErrInvalidQuery, i)
	}
	return Categories[i], nil
}

// Scale names a health score. Lower is healthier on every scale.
type Scale string

const (
	FSA Scale = "fsa"
	WHO Scale = "who"
)

// Scales lists the known health scales.
var Scales = []Scale{FSA, WHO}

// ParseScale validates a scale name. An empty name means FSA.
func ParseScale(s string) (Scale, error) {
	switch sc := Scale(s); sc {
	case "":
		return FSA, nil
	case FSA, WHO:
		return sc, nil
	}
	return "", fmt.Errorf("%w: unknown score scale %q (use fsa or who)", ErrInvalidQuery, s)
}

// Recipe is a single course. Values handed out by the Index must be treated as
// read-only; the slices and map are shared with the index.
type Recipe struct {
	ID          int64
	Name        string
	Category    Category
	Scores      map[Scale]float64
	Ingredients []string
	Tags        []string

	// Meals lists the meal compositions this recipe appears in, ascending.
	// Filled in by NewIndex.
	Meals []int64
}

// Score returns the recipe's score on a scale.
func (r Recipe) Score(s Scale) (float64, bool) {
	v, ok := r.Scores[s]
	return v, ok
}

// Combined returns fsa+who, the ranking key used when both scales matter.
// ok is false unless both scores are present.
func (r Recipe) Combined() (float64, bool) {
	f, ok1 := r.Scores[FSA]
	w, ok2 := r.Scores[WHO]
	return f + w, ok1 && ok2
}

// MealComposition is a historical grouping of courses into one meal.
type MealComposition struct {
	ID        int64
	RecipeIDs []int64
}

// InteractionKind says whether a user interacted with a single course or a whole meal.
type InteractionKind string

const (
	CourseInteraction InteractionKind = "course"
	MealInteraction   InteractionKind = "meal"
)

// Interaction records that a user chose a course or meal.
type Interaction struct {
	UserID int64
	Kind   InteractionKind
	ItemID int64
}

// HealthRating turns a score into a coarse label.
func HealthRating(score float64) string {
	switch {
	case score <= 4:
		return "excellent"
	case score <= 6:
		return "very good"
	case score <= 8:
		return "good"
	case score <= 10:
		return "fair"
	default:
		return "poor"
	}
}
