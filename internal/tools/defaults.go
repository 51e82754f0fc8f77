package tools

import (
	"fmt"

	"github.com/mealwise/mealwise/internal/recipe"
)

// NewDefaultRegistry registers every meal tool against idx.
func NewDefaultRegistry(idx *recipe.Index) (*Registry, error) {
	r := NewRegistry()
	for _, d := range []Descriptor{
		FilterCoursesTool(idx),
		SearchByCategoryTool(idx),
		FindHealthyTool(idx),
		MealPlanTool(idx),
		SwapTool(idx),
		SummarizeTool(idx),
		HealthScoreTool(idx),
		MealCompositionTool(idx),
		SimilarMealsTool(idx),
		UserHistoryTool(idx),
	} {
		if err := r.Register(d); err != nil {
			return nil, fmt.Errorf("default registry: %w", err)
		}
	}
	return r, nil
}
