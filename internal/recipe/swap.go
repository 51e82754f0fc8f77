package recipe

import "fmt"

// SwapRequest asks for a healthier recipe in the same category as RecipeID.
type SwapRequest struct {
	RecipeID int64
	Scale    Scale
	// MaxScore, when set, is an upper bound on the replacement's score.
	MaxScore *float64
	// MinImprovement is how much lower than the original the replacement must
	// score; the improvement has to exceed it strictly.
	MinImprovement float64
}

// RecommendSwap returns the lowest-scoring recipe in the original's category
// that is strictly healthier than the original. Ties go to the lower id.
func (idx *Index) RecommendSwap(req SwapRequest) (Recipe, error) {
	scale, err := ParseScale(string(req.Scale))
	if err != nil {
		return Recipe{}, err
	}
	if req.MinImprovement < 0 {
		return Recipe{}, fmt.Errorf("%w: negative minimum improvement %v", ErrInvalidQuery, req.MinImprovement)
	}
	orig, err := idx.Get(req.RecipeID)
	if err != nil {
		return Recipe{}, err
	}
	origScore, ok := orig.Score(scale)
	if !ok {
		return Recipe{}, fmt.Errorf("recipe %d has no %s score: %w", orig.ID, scale, ErrNotFound)
	}

	var (
		best      Recipe
		bestScore float64
		found     bool
	)
	for _, r := range idx.ordered {
		if r.ID == orig.ID || r.Category != orig.Category {
			continue
		}
		s, ok := r.Score(scale)
		if !ok || origScore-s <= req.MinImprovement {
			continue
		}
		if req.MaxScore != nil && s > *req.MaxScore {
			continue
		}
		// idx.ordered is ascending by id, so strict < keeps the lowest id on ties.
		if !found || s < bestScore {
			best, bestScore, found = r, s, true
		}
	}
	if !found {
		return Recipe{}, fmt.Errorf("no healthier %s than recipe %d: %w", orig.Category, orig.ID, ErrNotFound)
	}
	return best, nil
}
