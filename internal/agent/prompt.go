package agent

import (
	"fmt"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/mealwise/mealwise/internal/service"
)

// BaseSystemPrompt frames every conversation.
const BaseSystemPrompt = `You are MealWise, a nutrition-aware meal planning assistant.

You recommend courses and meals from a recipe corpus. Every recipe is an appetizer, a main or a dessert and carries health scores on the FSA and WHO scales. Lower scores are healthier on both scales.

RULES:
1. You MUST call tools before recommending anything. Never invent recipes, ids or scores.
2. Use filter_courses or find_healthy_courses for lookups, generate_meal_plan for multi-course meals and swap_for_healthier to replace a course.
3. If a tool reports an error, fix the arguments or pick another tool.
4. When you have enough information, answer in plain language: name each recommended course with its id and scores and explain why it fits the request.
5. Keep answers short. Do not call more tools once you can answer.`

// buildSystemPrompt adds a corpus overview and routing hints to the base prompt.
func buildSystemPrompt(base, source string, idx *recipe.Index, route service.RoutingResult) string {
	var sb strings.Builder
	sb.WriteString(base)

	if idx != nil {
		sb.WriteString("\n\n## Corpus")
		if source != "" {
			sb.WriteString(": " + source)
		}
		fmt.Fprintf(&sb, "\n%d recipes, %d meal compositions.\n", idx.Len(), idx.MealCount())
		for _, s := range idx.Summary() {
			if s.Recipes == 0 {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %d recipes, FSA %.1f to %.1f\n", s.Category, s.Recipes, s.MinFSA, s.MaxFSA)
		}
	}

	if route.Intent != "" && route.Intent != service.IntentGeneral {
		sb.WriteString("\n## Request hints\n")
		fmt.Fprintf(&sb, "The request looks like a %s request. Start with: %s.\n",
			strings.ReplaceAll(string(route.Intent), "_", " "), strings.Join(route.Tools, ", "))
		if len(route.Categories) > 0 {
			cats := make([]string, 0, len(route.Categories))
			for _, c := range route.Categories {
				cats = append(cats, string(c))
			}
			fmt.Fprintf(&sb, "Mentioned categories: %s.\n", strings.Join(cats, ", "))
		}
		if route.HealthFocus != "" {
			fmt.Fprintf(&sb, "Dietary focus: %s.\n", route.HealthFocus)
		}
	}
	return sb.String()
}
