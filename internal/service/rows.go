package service

import (
	"fmt"
	"strconv"

	"github.com/mealwise/mealwise/internal/recipe"
)

// Table names shared by the SQL-backed sources.
const (
	RecipesTable      = "recipes"
	MealCoursesTable  = "meal_courses"
	InteractionsTable = "user_interactions"
)

// recipeRecord is a recipe row as stored by any backend.
type recipeRecord struct {
	ID          int64
	Name        string
	Category    string
	FSA         *float64
	WHO         *float64
	Ingredients []string
	Tags        []string
}

// parseCategory accepts a category name or the dataset's numeric index.
func parseCategory(s string) (recipe.Category, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return recipe.CategoryFromIndex(n)
	}
	return recipe.ParseCategory(s)
}

func (r recipeRecord) toRecipe() (recipe.Recipe, error) {
	c, err := parseCategory(r.Category)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("recipe %d: %w", r.ID, err)
	}
	out := recipe.Recipe{
		ID:          r.ID,
		Name:        r.Name,
		Category:    c,
		Scores:      make(map[recipe.Scale]float64, 2),
		Ingredients: r.Ingredients,
		Tags:        r.Tags,
	}
	if out.Name == "" {
		out.Name = "Course_" + strconv.FormatInt(r.ID, 10)
	}
	if r.FSA != nil {
		out.Scores[recipe.FSA] = *r.FSA
	}
	if r.WHO != nil {
		out.Scores[recipe.WHO] = *r.WHO
	}
	return out, nil
}

func toRecipes(recs []recipeRecord) ([]recipe.Recipe, error) {
	out := make([]recipe.Recipe, 0, len(recs))
	for _, r := range recs {
		rec, err := r.toRecipe()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

type mealRecord struct {
	MealID   int64
	CourseID int64
}

// groupMeals folds (meal, course) rows into compositions, keeping first-seen
// order for meals and row order for courses.
func groupMeals(rows []mealRecord) []recipe.MealComposition {
	pos := map[int64]int{}
	var out []recipe.MealComposition
	for _, r := range rows {
		i, ok := pos[r.MealID]
		if !ok {
			i = len(out)
			pos[r.MealID] = i
			out = append(out, recipe.MealComposition{ID: r.MealID})
		}
		out[i].RecipeIDs = append(out[i].RecipeIDs, r.CourseID)
	}
	return out
}

type interactionRecord struct {
	UserID int64
	Kind   string
	ItemID int64
}

func toInteractions(rows []interactionRecord) ([]recipe.Interaction, error) {
	out := make([]recipe.Interaction, 0, len(rows))
	for _, r := range rows {
		k := recipe.InteractionKind(r.Kind)
		if k != recipe.CourseInteraction && k != recipe.MealInteraction {
			return nil, fmt.Errorf("interaction for user %d: unknown kind %q", r.UserID, r.Kind)
		}
		out = append(out, recipe.Interaction{UserID: r.UserID, Kind: k, ItemID: r.ItemID})
	}
	return out, nil
}
