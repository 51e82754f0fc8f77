package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type categoryArgs struct {
	Category string `mapstructure:"category"`
	Limit    *int   `mapstructure:"limit"`
}

// SearchByCategoryTool lists the healthiest courses of one category.
func SearchByCategoryTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "search_courses_by_category",
			Description: "List courses in a category, healthiest first by combined FSA and WHO score.",
			Params: []Param{
				{Name: "category", Type: String, Required: true, Enum: categoryEnum, Description: "Course category"},
				{Name: "limit", Type: Integer, Description: fmt.Sprintf("Maximum number of courses (default: %d)", defaultListLimit)},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a categoryArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			data, err := listing(idx, recipe.Filter{
				Category: a.Category,
				RankBy:   recipe.RankByCombined,
				Limit:    limitOr(a.Limit, defaultListLimit),
			})
			if err != nil {
				return Result{}, err
			}
			data["category"] = a.Category
			return Result{
				Data:      data,
				Rationale: fmt.Sprintf("%d %s courses available", data["total_found"], a.Category),
			}, nil
		},
	}
}
