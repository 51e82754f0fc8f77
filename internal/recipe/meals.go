package recipe

import (
	"fmt"
	"sort"
)

// Meal returns a meal composition by id.
func (idx *Index) Meal(id int64) (MealComposition, error) {
	m, ok := idx.meals[id]
	if !ok {
		return MealComposition{}, fmt.Errorf("meal %d: %w", id, ErrNotFound)
	}
	return m, nil
}

// MealRecipes resolves a meal's recipe ids, skipping ids missing from the corpus.
func (idx *Index) MealRecipes(m MealComposition) []Recipe {
	out := make([]Recipe, 0, len(m.RecipeIDs))
	for _, id := range m.RecipeIDs {
		if r, ok := idx.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// MealScore is the mean score of a meal's courses on a scale.
func (idx *Index) MealScore(m MealComposition, s Scale) (float64, int) {
	var sum float64
	var n int
	for _, r := range idx.MealRecipes(m) {
		if v, ok := r.Score(s); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// ScoredMeal pairs a meal with its mean FSA score.
type ScoredMeal struct {
	Meal         MealComposition
	AverageScore float64
}

// SimilarMeals finds meals that do not contain the recipe but do contain a
// course of the same category, healthiest first (ties by meal id).
func (idx *Index) SimilarMeals(recipeID int64, limit int) ([]ScoredMeal, int, error) {
	ref, err := idx.Get(recipeID)
	if err != nil {
		return nil, 0, err
	}
	if limit < 0 {
		return nil, 0, fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, limit)
	}
	if limit == 0 || limit > MaxResults {
		limit = MaxResults
	}
	contains := make(map[int64]bool, len(ref.Meals))
	for _, id := range ref.Meals {
		contains[id] = true
	}

	var out []ScoredMeal
	for _, mid := range idx.mealIDs {
		if contains[mid] {
			continue
		}
		m := idx.meals[mid]
		recipes := idx.MealRecipes(m)
		similar := false
		for _, r := range recipes {
			if r.Category == ref.Category {
				similar = true
				break
			}
		}
		if !similar {
			continue
		}
		avg, _ := idx.MealScore(m, FSA)
		out = append(out, ScoredMeal{Meal: m, AverageScore: avg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore < out[j].AverageScore })
	total := len(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

// UserHistory summarises what a user has eaten.
type UserHistory struct {
	UserID         int64
	Courses        int
	Meals          int
	CategoryShare  map[Category]float64 // percent of known courses
	AverageScore   float64              // mean FSA of known courses
	FavoriteCourse Category
}

// UserHistory returns a user's interaction summary.
func (idx *Index) UserHistory(userID int64) (UserHistory, error) {
	courses := idx.userCourses[userID]
	meals := idx.userMeals[userID]
	if len(courses) == 0 && len(meals) == 0 {
		return UserHistory{}, fmt.Errorf("history for user %d: %w", userID, ErrNotFound)
	}

	h := UserHistory{
		UserID:        userID,
		Courses:       len(courses),
		Meals:         len(meals),
		CategoryShare: make(map[Category]float64, len(Categories)),
	}
	counts := make(map[Category]int, len(Categories))
	var known int
	var sum float64
	var scored int
	for _, id := range courses {
		r, ok := idx.byID[id]
		if !ok {
			continue
		}
		known++
		counts[r.Category]++
		if v, ok := r.Score(FSA); ok {
			sum += v
			scored++
		}
	}
	if known > 0 {
		best := 0
		for _, c := range Categories {
			h.CategoryShare[c] = float64(counts[c]) / float64(known) * 100
			if counts[c] > best {
				best = counts[c]
				h.FavoriteCourse = c
			}
		}
	}
	if scored > 0 {
		h.AverageScore = sum / float64(scored)
	}
	return h, nil
}

// CategorySummary describes one category of the corpus.
type CategorySummary struct {
	Category Category
	Recipes  int
	MinFSA   float64
	MaxFSA   float64
}

// Summary counts recipes per category, in course order.
func (idx *Index) Summary() []CategorySummary {
	out := make([]CategorySummary, len(Categories))
	pos := make(map[Category]int, len(Categories))
	scored := make([]int, len(Categories))
	for i, c := range Categories {
		out[i].Category = c
		pos[c] = i
	}
	for _, r := range idx.ordered {
		i := pos[r.Category]
		out[i].Recipes++
		s, ok := r.Score(FSA)
		if !ok {
			continue
		}
		if scored[i] == 0 || s < out[i].MinFSA {
			out[i].MinFSA = s
		}
		if scored[i] == 0 || s > out[i].MaxFSA {
			out[i].MaxFSA = s
		}
		scored[i]++
	}
	return out
}

// MealCount returns the number of meal compositions.
func (idx *Index) MealCount() int { return len(idx.mealIDs) }
