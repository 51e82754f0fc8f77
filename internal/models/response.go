package models

import "github.com/mealwise/mealwise/internal/recipe"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// TokenUsage is the model token spend of one chat.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TraceStep is one tool call made while answering a chat.
type TraceStep struct {
	Round      int                    `json:"round"`
	Tool       string                 `json:"tool"`
	Arguments  map[string]interface{} `json:"arguments,omitempty"`
	Result     interface{}            `json:"result,omitempty"`
	Rationale  string                 `json:"rationale,omitempty"`
	IsError    bool                   `json:"is_error"`
	Error      string                 `json:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
}

// ChatResponse is returned by POST /api/v1/chat
type ChatResponse struct {
	Status        string                 `json:"status"`
	Prompt        string                 `json:"prompt"`
	Answer        string                 `json:"answer,omitempty"`
	StopReason    string                 `json:"stop_reason,omitempty"`
	Rounds        int                    `json:"rounds"`
	ToolsUsed     []string               `json:"tools_used"`
	Usage         TokenUsage             `json:"usage"`
	Trace         []TraceStep            `json:"trace,omitempty"`
	AgentMetadata map[string]interface{} `json:"agent_metadata"`
}

// ToolInfo describes one tool offered to the model.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolsResponse is returned by GET /api/v1/tools
type ToolsResponse struct {
	Status string     `json:"status"`
	Tools  []ToolInfo `json:"tools"`
	Count  int        `json:"count"`
}

// ToolCallResponse is returned by POST /api/v1/tools/{name}
type ToolCallResponse struct {
	Status    string      `json:"status"`
	Tool      string      `json:"tool"`
	Result    interface{} `json:"result,omitempty"`
	Rationale string      `json:"rationale,omitempty"`
	IsError   bool        `json:"is_error"`
}

// RecipeView is the JSON shape of a recipe.
type RecipeView struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	FSAScore      *float64 `json:"fsa_score,omitempty"`
	WHOScore      *float64 `json:"who_score,omitempty"`
	CombinedScore *float64 `json:"combined_score,omitempty"`
	HealthRating  string   `json:"health_rating,omitempty"`
	Ingredients   []string `json:"ingredients,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Meals         []int64  `json:"meals,omitempty"`
}

// NewRecipeView converts a recipe. Missing scores are left out.
func NewRecipeView(r recipe.Recipe) RecipeView {
	v := RecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Category:    string(r.Category),
		Ingredients: r.Ingredients,
		Tags:        r.Tags,
		Meals:       r.Meals,
	}
	if s, ok := r.Score(recipe.FSA); ok {
		v.FSAScore = &s
		v.HealthRating = recipe.HealthRating(s)
	}
	if s, ok := r.Score(recipe.WHO); ok {
		v.WHOScore = &s
	}
	if s, ok := r.Combined(); ok {
		v.CombinedScore = &s
	}
	return v
}

// RecipesResponse is returned by GET /api/v1/recipes
type RecipesResponse struct {
	Status  string       `json:"status"`
	Recipes []RecipeView `json:"recipes"`
	Total   int          `json:"total"`
	Count   int          `json:"count"`
}

// RecipeResponse is returned by GET /api/v1/recipes/{id}
type RecipeResponse struct {
	Status string     `json:"status"`
	Recipe RecipeView `json:"recipe"`
}

// SwapResponse is returned by GET /api/v1/recipes/{id}/swap
type SwapResponse struct {
	Status      string      `json:"status"`
	Scale       string      `json:"scale"`
	Original    RecipeView  `json:"original"`
	Alternative *RecipeView `json:"alternative"`
	Improvement float64     `json:"improvement,omitempty"`
	Message     string      `json:"message,omitempty"`
}
