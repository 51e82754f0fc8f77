package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
)

type planArgs struct {
	IncludeCategories []string `mapstructure:"include_categories"`
	HealthFocus       string   `mapstructure:"health_focus"`
	MaxScore          *float64 `mapstructure:"max_score"`
	Budget            string   `mapstructure:"budget"`
	ScoreType         string   `mapstructure:"score_type"`
}

func healthFocusEnum() []string {
	out := make([]string, 0, len(recipe.HealthFocusThresholds))
	for k := range recipe.HealthFocusThresholds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MealPlanTool builds a multi-course meal under a joint health budget.
func MealPlanTool(idx *recipe.Index) Descriptor {
	return Descriptor{
		Schema: Schema{
			Name: "generate_meal_plan",
			Description: "Generate a meal with one course per category (appetizer, main, dessert by default). " +
				"Picks the healthiest course in each category while the joint score stays within the ceiling. " +
				"budget=sum caps the total of the course scores, budget=max caps the worst course.",
			Params: []Param{
				{Name: "include_categories", Type: Array, Items: String, Description: "Categories to include, in course order"},
				{Name: "health_focus", Type: String, Enum: healthFocusEnum(), Description: "Dietary focus; sets the default ceiling (weight_loss 5, heart_healthy 6, low_sodium 7, balanced 8 per course)"},
				{Name: "max_score", Type: Number, Description: "Explicit ceiling for the joint score; overrides health_focus"},
				{Name: "budget", Type: String, Enum: []string{string(recipe.BudgetSum), string(recipe.BudgetMax)}, Description: "How course scores combine (default: sum)"},
				{Name: "score_type", Type: String, Enum: scaleEnum, Description: "Health scale to budget on (default: fsa)"},
			},
		},
		Handler: func(ctx context.Context, in map[string]interface{}) (Result, error) {
			var a planArgs
			if err := decode(in, &a); err != nil {
				return Result{}, err
			}
			req := recipe.PlanRequest{
				Scale:       recipe.Scale(a.ScoreType),
				Mode:        recipe.BudgetMode(a.Budget),
				HealthFocus: a.HealthFocus,
				Ceiling:     a.MaxScore,
			}
			for _, c := range a.IncludeCategories {
				req.Categories = append(req.Categories, recipe.Category(c))
			}
			plan, err := idx.PlanMeal(req)
			if err != nil {
				return Result{}, err
			}

			courses := make(map[string]interface{}, len(plan.Courses))
			for _, c := range plan.Courses {
				courses[string(c.Category)] = courseView(c.Recipe)
			}
			missing := make([]string, 0, len(plan.Missing))
			for _, c := range plan.Missing {
				missing = append(missing, string(c))
			}
			data := map[string]interface{}{
				"meal_plan":         courses,
				"missing":           missing,
				"health_focus":      plan.HealthFocus,
				"budget":            string(plan.Mode),
				"score_type":        string(plan.Scale),
				"ceiling":           plan.Ceiling,
				"joint_score":       round2(plan.JointScore),
				"average_fsa_score": round2(plan.Average(recipe.FSA)),
				"average_who_score": round2(plan.Average(recipe.WHO)),
				"courses_included":  len(plan.Courses),
			}

			rationale := fmt.Sprintf("planned %d courses with joint %s score %.2f (%s budget, ceiling %.2f)",
				len(plan.Courses), plan.Scale, plan.JointScore, plan.Mode, plan.Ceiling)
			if len(missing) > 0 {
				rationale += "; no course fits the budget for " + strings.Join(missing, ", ")
			}
			return Result{Data: data, Rationale: rationale}, nil
		},
	}
}
