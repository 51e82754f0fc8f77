package tools

import (
	"context"
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

type healthScoreArgs struct {
	ItemID    int64  `mapstructure:"item_id"`
	ScoreType string `mapstructure:"score_type"`
	ItemType  string `mapstructure:"item_type"`
}

// scoreOf returns a course's score on a scale, or the fsa/who mean for "combined".
func scoreOf(r recipe.Recipe, scoreType string) (float64, bool) {
	if scoreType == string(recipe.RankByCombined) {
		sum, ok := r.Combined()
		return sum / 2, ok
	}
	return r.Score(recipe.Scale(scoreType))
}

// HealthScoreTool scores a course or a whole meal.
func HealthScoreTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name:        "calculate_health_score",
			Description: "Health score and rating of a course, or the mean over a meal's courses. combined is the mean of FSA and WHO.",
			Params: []Param{
				{Name: "item_id", Type: Integer, Required: true, Description: "Course or meal id"},
				{Name: "score_type", Type: String, Required: true, Enum: []string{"fsa", "who", "combined"}, Description: "Score to compute"},
				{Name: "item_type", Type: String, Enum: []string{"course", "meal"}, Description: "What item_id refers to (default: course)"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a healthScoreArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}

			if a.ItemType == "meal" {
				m, err := idx.Meal(a.ItemID)
				if err != nil {
					return Result{}, err
				}
				var scores []float64
				for _, r := range idx.MealRecipes(m) {
					if v, ok := scoreOf(r, a.ScoreType); ok {
						scores = append(scores, v)
					}
				}
				if len(scores) == 0 {
					return Result{}, fmt.Errorf("meal %d has no %s-scored courses: %w", m.ID, a.ScoreType, recipe.ErrNotFound)
				}
				var sum float64
				for _, v := range scores {
					sum += v
				}
				avg := sum / float64(len(scores))
				return Result{
					Data: map[string]interface{}{
						"item_id":           m.ID,
						"item_type":         "meal",
						"score_type":        a.ScoreType,
						"score":             round2(avg),
						"health_rating":     recipe.HealthRating(avg),
						"course_count":      len(scores),
						"individual_scores": scores,
					},
					Rationale: fmt.Sprintf("meal %d averages %.2f (%s) over %d courses", m.ID, avg, a.ScoreType, len(scores)),
				}, nil
			}

			r, err := idx.Get(a.ItemID)
			if err != nil {
				return Result{}, err
			}
			v, ok := scoreOf(r, a.ScoreType)
			if !ok {
				return Result{}, fmt.Errorf("course %d has no %s score: %w", r.ID, a.ScoreType, recipe.ErrNotFound)
			}
			return Result{
				Data: map[string]interface{}{
					"item_id":       r.ID,
					"item_type":     "course",
					"score_type":    a.ScoreType,
					"score":         round2(v),
					"health_rating": recipe.HealthRating(v),
					"course_name":   r.Name,
					"category":      string(r.Category),
				},
				Rationale: fmt.Sprintf("%s scores %.2f (%s), rated %s", r.Name, v, a.ScoreType, recipe.HealthRating(v)),
			}, nil
		},
	}
}
