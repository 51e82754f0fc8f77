package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type swapArgs struct {
	RecipeID       int64    `mapstructure:"recipe_id"`
	MaxScore       *float64 `mapstructure:"max_score"`
	MinImprovement float64  `mapstructure:"min_improvement"`
	ScoreType      string   `mapstructure:"score_type"`
}

// SwapTool suggests a healthier course in the same category.
func SwapTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "swap_for_healthier",
			Description: "Find the healthiest alternative to a course within the same category. The alternative must score strictly lower than the original.",
			Params: []Param{
				{Name: "recipe_id", Type: Integer, Required: true, Description: "Course to replace"},
				{Name: "max_score", Type: Number, Description: "Upper bound on the alternative's score"},
				{Name: "min_improvement", Type: Number, Description: "Required improvement over the original (default: 0)"},
				{Name: "score_type", Type: String, Enum: scaleEnum, Description: "Health scale to compare on (default: fsa)"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a swapArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			orig, err := idx.Get(a.RecipeID)
			if err != nil {
				return Result{}, err
			}
			alt, err := idx.RecommendSwap(recipe.SwapRequest{
				RecipeID:       a.RecipeID,
				Scale:          recipe.Scale(a.ScoreType),
				MaxScore:       a.MaxScore,
				MinImprovement: a.MinImprovement,
			})
			if errors.Is(err, recipe.ErrNotFound) {
				return Result{
					Data: map[string]interface{}{
						"original_course":       courseView(orig),
						"healthier_alternative": nil,
					},
					Rationale: fmt.Sprintf("no healthier %s than %s was found (%v)", orig.Category, orig.Name, err),
				}, nil
			}
			if err != nil {
				return Result{}, err
			}

			scale, _ := recipe.ParseScale(a.ScoreType)
			before, _ := orig.Score(scale)
			after, _ := alt.Score(scale)
			data := map[string]interface{}{
				"original_course":       courseView(orig),
				"healthier_alternative": courseView(alt),
				"category":              string(orig.Category),
				"score_type":            string(scale),
				"improvement":           round2(before - after),
			}
			return Result{
				Data:      data,
				Rationale: fmt.Sprintf("%s scores %.2f lower than %s on %s", alt.Name, before-after, orig.Name, scale),
			}, nil
		},
	}
}
