package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type healthyArgs struct {
	MaxFSAScore float64 `mapstructure:"max_fsa_score"`
	Category    string  `mapstructure:"category"`
	Limit       *int    `mapstructure:"limit"`
}

// FindHealthyTool finds courses under an FSA ceiling.
func FindHealthyTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "find_healthy_courses",
			Description: "Find courses whose FSA score is at or below a ceiling, optionally within one category, healthiest first.",
			Params: []Param{
				{Name: "max_fsa_score", Type: Number, Required: true, Description: "Maximum FSA health score"},
				{Name: "category", Type: String, Enum: categoryEnum, Description: "Optional course category"},
				{Name: "limit", Type: Integer, Description: fmt.Sprintf("Maximum number of courses (default: %d)", defaultListLimit)},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a healthyArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			data, err := listing(idx, recipe.Filter{
				Category:  a.Category,
				MaxScores: []recipe.ScoreLimit{{Scale: recipe.FSA, Max: a.MaxFSAScore}},
				RankBy:    recipe.RankByCombined,
				Limit:     limitOr(a.Limit, defaultListLimit),
			})
			if err != nil {
				return Result{}, err
			}
			data["criteria"] = map[string]interface{}{"max_fsa_score": a.MaxFSAScore, "category": a.Category}
			return Result{
				Data:      data,
				Rationale: fmt.Sprintf("%d courses score %.1f or lower on FSA", data["total_found"], a.MaxFSAScore),
			}, nil
		},
	}
}
