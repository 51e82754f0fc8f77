package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type userArgs struct {
	UserID int64 `mapstructure:"user_id"`
}

// UserHistoryTool summarises a user's past course and meal choices.
func UserHistoryTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "get_user_history",
			Description: "Summarize a user's past choices: course and meal counts, category preferences and average FSA score.",
			Params: []Param{
				{Name: "user_id", Type: Integer, Required: true, Description: "User id"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a userArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			h, err := idx.UserHistory(a.UserID)
			if err != nil {
				return Result{}, err
			}
			prefs := make(map[string]interface{}, len(h.CategoryShare))
			for c, share := range h.CategoryShare {
				prefs[string(c)] = round2(share)
			}
			data := map[string]interface{}{
				"user_id":              h.UserID,
				"total_courses":        h.Courses,
				"total_meals":          h.Meals,
				"category_preferences": prefs,
				"average_health_score": round2(h.AverageScore),
			}
			if h.AverageScore > 0 {
				data["health_preference"] = recipe.HealthRating(h.AverageScore)
			}
			if h.FavoriteCourse != "" {
				data["most_preferred_category"] = string(h.FavoriteCourse)
			}
			return Result{
				Data:      data,
				Rationale: fmt.Sprintf("user %d chose %d courses and %d meals", h.UserID, h.Courses, h.Meals),
			}, nil
		},
	}
}
