package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type mealArgs struct {
	MealID int64 `mapstructure:"meal_id"`
}

// MealCompositionTool lists the courses of a historical meal.
func MealCompositionTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "get_meal_composition",
			Description: "List the courses that make up a meal, with average scores.",
			Params: []Param{
				{Name: "meal_id", Type: Integer, Required: true, Description: "Meal id"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a mealArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			m, err := idx.Meal(a.MealID)
			if err != nil {
				return Result{}, err
			}
			courses := idx.MealRecipes(m)
			fsa, _ := idx.MealScore(m, recipe.FSA)
			who, _ := idx.MealScore(m, recipe.WHO)
			data := map[string]interface{}{
				"meal_id":      m.ID,
				"courses":      courseViews(courses),
				"course_count": len(courses),
				"average_scores": map[string]interface{}{
					"fsa":      round2(fsa),
					"who":      round2(who),
					"combined": round2((fsa + who) / 2),
				},
				"health_rating": recipe.HealthRating(fsa),
			}
			return Result{
				Data:      data,
				Rationale: fmt.Sprintf("meal %d has %d courses averaging %.2f FSA", m.ID, len(courses), fsa),
			}, nil
		},
	}
}
