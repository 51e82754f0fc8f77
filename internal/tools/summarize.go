package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
)

type recipeArgs struct {
	RecipeID int64 `mapstructure:"recipe_id"`
	Limit    *int  `mapstructure:"limit"`
}

func popularity(meals int) string {
	switch {
	case meals > 10:
		return "very popular"
	case meals > 5:
		return "popular"
	default:
		return "moderately used"
	}
}

// SummarizeTool describes one course in prose.
func SummarizeTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "summarize_recipe",
			Description: "Summarize a course: category, health scores, rating and how often it appears in meals.",
			Params: []Param{
				{Name: "recipe_id", Type: Integer, Required: true, Description: "Course to summarize"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a recipeArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			r, err := idx.Get(a.RecipeID)
			if err != nil {
				return Result{}, err
			}

			var sb strings.Builder
			fsa, scored := r.Score(recipe.FSA)
			if scored {
				fmt.Fprintf(&sb, "%s (%s) is rated %s with an FSA score of %.1f", r.Name, r.Category, recipe.HealthRating(fsa), fsa)
			} else {
				fmt.Fprintf(&sb, "%s (%s) has no FSA score", r.Name, r.Category)
			}
			if who, ok := r.Score(recipe.WHO); ok {
				fmt.Fprintf(&sb, " and a WHO score of %.1f", who)
			}
			fmt.Fprintf(&sb, ". This %s course appears in %d meal combinations.", popularity(len(r.Meals)), len(r.Meals))
			switch {
			case !scored:
			case fsa <= 5:
				sb.WriteString(" An excellent choice for health-conscious diners.")
			case fsa <= 7:
				sb.WriteString(" A good balance of taste and nutrition.")
			default:
				sb.WriteString(" Better as an occasional treat than a regular choice.")
			}

			data := courseView(r)
			data["summary"] = sb.String()
			data["meal_appearances"] = len(r.Meals)
			return Result{Data: data, Rationale: sb.String()}, nil
		},
	}
}
