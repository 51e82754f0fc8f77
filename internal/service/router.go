package service

import (
	"sort"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
)

// Intent is the kind of help a request is after.
type Intent string

const (
	IntentMealPlan Intent = "meal_plan"
	IntentSwap     Intent = "swap"
	IntentFilter   Intent = "filter"
	IntentHistory  Intent = "history"
	IntentLookup   Intent = "lookup"
	IntentGeneral  Intent = "general"
)

type intentRule struct {
	intent   Intent
	keywords []string
	tools    []string
}

// rules are checked in order; earlier rules win ties.
var rules = []intentRule{
	{
		intent: IntentMealPlan,
		keywords: []string{
			"meal plan", "plan a meal", "full meal", "three course", "3 course", "multi-course",
			"dinner", "lunch", "menu", "whole meal", "starter and", "course meal",
		},
		tools: []string{"generate_meal_plan", "search_courses_by_category"},
	},
	{
		intent: IntentSwap,
		keywords: []string{
			"swap", "replace", "substitute", "alternative", "instead of", "healthier version",
			"healthier than", "switch",
		},
		tools: []string{"swap_for_healthier", "summarize_recipe"},
	},
	{
		intent: IntentHistory,
		keywords: []string{
			"my history", "i ate", "i've eaten", "i have eaten", "my past", "user", "preferences", "usually",
		},
		tools: []string{"get_user_history", "recommend_similar_meals"},
	},
	{
		intent: IntentLookup,
		keywords: []string{
			"recipe", "course #", "course id", "meal id", "summarize", "summary", "tell me about", "score of",
			"how healthy is", "composition",
		},
		tools: []string{"summarize_recipe", "calculate_health_score", "get_meal_composition"},
	},
	{
		intent: IntentFilter,
		keywords: []string{
			"healthy", "healthiest", "low", "under", "below", "less than", "score", "fsa", "who",
			"light", "find", "show", "list",
		},
		tools: []string{"filter_courses", "find_healthy_courses"},
	},
}

var categoryKeywords = map[recipe.Category][]string{
	recipe.Appetizer: {"appetizer", "starter", "soup", "salad"},
	recipe.Main:      {"main", "entree", "entrée"},
	recipe.Dessert:   {"dessert", "sweet", "cake", "pudding"},
}

var healthFocusKeywords = map[string][]string{
	"weight_loss":   {"weight loss", "lose weight", "diet", "low calorie", "low-calorie"},
	"heart_healthy": {"heart", "cholesterol", "cardio"},
	"low_sodium":    {"sodium", "salt", "blood pressure"},
}

// RoutingResult describes what a request seems to want.
type RoutingResult struct {
	Intent      Intent
	Confidence  float64
	Scores      map[Intent]int
	Tools       []string
	Categories  []recipe.Category
	HealthFocus string
	Reasoning   string
}

// IntentRouter classifies meal requests by keyword so the agent can be
// pointed at the most relevant tools.
type IntentRouter struct{}

func NewIntentRouter() *IntentRouter {
	return &IntentRouter{}
}

// Route analyses the prompt.
func (r *IntentRouter) Route(prompt string) RoutingResult {
	lower := strings.ToLower(prompt)

	res := RoutingResult{Scores: make(map[Intent]int, len(rules))}
	total := 0
	best := -1
	for i, rule := range rules {
		n := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		res.Scores[rule.intent] = n
		total += n
		if n > 0 && (best < 0 || n > res.Scores[rules[best].intent]) {
			best = i
		}
	}

	for _, c := range recipe.Categories {
		for _, kw := range categoryKeywords[c] {
			if strings.Contains(lower, kw) {
				res.Categories = append(res.Categories, c)
				break
			}
		}
	}

	focuses := make([]string, 0, len(healthFocusKeywords))
	for f := range healthFocusKeywords {
		focuses = append(focuses, f)
	}
	sort.Strings(focuses)
	for _, f := range focuses {
		for _, kw := range healthFocusKeywords[f] {
			if strings.Contains(lower, kw) && res.HealthFocus == "" {
				res.HealthFocus = f
			}
		}
	}

	if best < 0 {
		res.Intent = IntentGeneral
		res.Confidence = 0.5
		res.Reasoning = "no strong keywords, leaving tool choice to the model"
		return res
	}

	rule := rules[best]
	res.Intent = rule.intent
	res.Tools = rule.tools
	res.Confidence = float64(res.Scores[rule.intent]) / float64(total)
	res.Reasoning = "prompt contains " + strings.ReplaceAll(string(rule.intent), "_", " ") + " keywords"
	return res
}
