package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

const defaultSimilarLimit = 5

// SimilarMealsTool recommends meals that share a course category with a course.
func SimilarMealsTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "recommend_similar_meals",
			Description: "Recommend meals that do not contain a course but include another course of the same category, healthiest first.",
			Params: []Param{
				{Name: "recipe_id", Type: Integer, Required: true, Description: "Reference course"},
				{Name: "limit", Type: Integer, Description: fmt.Sprintf("Maximum number of meals (default: %d)", defaultSimilarLimit)},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a recipeArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			ref, err := idx.Get(a.RecipeID)
			if err != nil {
				return Result{}, err
			}
			meals, total, err := idx.SimilarMeals(a.RecipeID, limitOr(a.Limit, defaultSimilarLimit))
			if err != nil {
				return Result{}, err
			}
			out := make([]map[string]interface{}, 0, len(meals))
			for _, sm := range meals {
				out = append(out, map[string]interface{}{
					"meal_id":              sm.Meal.ID,
					"course_count":         len(sm.Meal.RecipeIDs),
					"average_health_score": round2(sm.AverageScore),
					"courses":              courseViews(idx.MealRecipes(sm.Meal)),
				})
			}
			return Result{
				Data: map[string]interface{}{
					"reference_course":            courseView(ref),
					"similar_meals":               out,
					"total_found":                 total,
					"meals_with_reference_course": len(ref.Meals),
				},
				Rationale: fmt.Sprintf("%d meals include another %s", total, ref.Category),
			}, nil
		},
	}
}
