package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type filterArgs struct {
	Category    string   `mapstructure:"category"`
	MaxFSAScore *float64 `mapstructure:"max_fsa_score"`
	MaxWHOScore *float64 `mapstructure:"max_who_score"`
	RankBy      string   `mapstructure:"rank_by"`
	Limit       *int     `mapstructure:"limit"`
}

// FilterCoursesTool answers conjunctive queries over the recipe index.
func FilterCoursesTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "filter_courses",
			Description: "Filter courses by category and maximum health scores. Lower scores are healthier. Results are ranked healthiest first unless rank_by says otherwise.",
			Params: []Param{
				{Name: "category", Type: String, Enum: categoryEnum, Description: "Course category"},
				{Name: "max_fsa_score", Type: Number, Description: "Maximum FSA health score (lower is healthier)"},
				{Name: "max_who_score", Type: Number, Description: "Maximum WHO health score (lower is healthier)"},
				{Name: "rank_by", Type: String, Enum: rankEnum, Description: "Ordering of results (default: combined)"},
				{Name: "limit", Type: Integer, Description: fmt.Sprintf("Maximum number of courses to return (default: %d, max: %d)", defaultListLimit, recipe.MaxResults)},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a filterArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			rank := a.RankBy
			if rank == "" {
				rank = string(recipe.RankByCombined)
			}
			key, err := recipe.ParseRankKey(rank)
			if err != nil {
				return Result{}, err
			}
			f := recipe.Filter{Category: a.Category, RankBy: key, Limit: limitOr(a.Limit, defaultListLimit)}
			if a.MaxFSAScore != nil {
				f.MaxScores = append(f.MaxScores, recipe.ScoreLimit{Scale: recipe.FSA, Max: *a.MaxFSAScore})
			}
			if a.MaxWHOScore != nil {
				f.MaxScores = append(f.MaxScores, recipe.ScoreLimit{Scale: recipe.WHO, Max: *a.MaxWHOScore})
			}

			data, err := listing(idx, f)
			if err != nil {
				return Result{}, err
			}
			data["criteria_applied"] = in
			rationale := fmt.Sprintf("%d courses match; showing %d ranked by %s", data["total_found"], data["showing"], rank)
			return Result{Data: data, Rationale: rationale}, nil
		},
	}
}
