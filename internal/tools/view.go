package tools

import (
	"math"

	"github.com/mealwise/mealwise/internal/recipe"
)

// defaultListLimit applies when a listing tool is called without a limit.
const defaultListLimit = 10

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func courseView(r recipe.Recipe) map[string]interface{} {
	v := map[string]interface{}{
		"course_id":   r.ID,
		"course_name": r.Name,
		"category":    string(r.Category),
		"meal_count":  len(r.Meals),
	}
	for _, s := range recipe.Scales {
		if score, ok := r.Score(s); ok {
			v[string(s)+"_score"] = score
		}
	}
	if fsa, ok := r.Score(recipe.FSA); ok {
		v["health_rating"] = recipe.HealthRating(fsa)
	}
	if len(r.Ingredients) > 0 {
		v["ingredients"] = r.Ingredients
	}
	if len(r.Tags) > 0 {
		v["tags"] = r.Tags
	}
	return v
}

func courseViews(rs []recipe.Recipe) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rs))
	for _, r := range rs {
		out = append(out, courseView(r))
	}
	return out
}

func limitOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// listing runs a query and shapes the usual courses/total/showing payload.
func listing(idx *recipe.Index, f recipe.Filter) (map[string]interface{}, error) {
	rs, err := idx.Query(f)
	if err != nil {
		return nil, err
	}
	total, err := idx.Count(f)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"courses":     courseViews(rs),
		"total_found": total,
		"showing":     len(rs),
	}, nil
}

var (
	categoryEnum = []string{string(recipe.Appetizer), string(recipe.Main), string(recipe.Dessert)}
	scaleEnum    = []string{string(recipe.FSA), string(recipe.WHO)}
	rankEnum     = []string{"id", string(recipe.FSA), string(recipe.WHO), string(recipe.RankByCombined)}
)
