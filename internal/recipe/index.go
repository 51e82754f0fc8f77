package recipe

import (
	"fmt"
	"sort"
)

// MaxResults bounds every query so tool results stay small.
const MaxResults = 50

// RankKey selects the ordering of query results.
type RankKey string

const (
	RankByID       RankKey = ""
	RankByFSA      RankKey = RankKey(FSA)
	RankByWHO      RankKey = RankKey(WHO)
	RankByCombined RankKey = "combined"
)

// ParseRankKey validates a ranking criterion. "id" and "" both mean id order.
func ParseRankKey(s string) (RankKey, error) {
	switch k := RankKey(s); k {
	case RankByID, RankByFSA, RankByWHO, RankByCombined:
		return k, nil
	case "id":
		return RankByID, nil
	}
	return "", fmt.Errorf("%w: unknown rank key %q (use id, fsa, who or combined)", ErrInvalidQuery, s)
}

// ScoreLimit keeps recipes whose score on Scale is at most Max.
type ScoreLimit struct {
	Scale Scale
	Max   float64
}

// Filter describes a conjunctive query. The zero Filter matches everything in
// id order, capped at MaxResults.
type Filter struct {
	Category  string
	MaxScores []ScoreLimit
	RankBy    RankKey
	Limit     int
}

// Index is the read-only retrieval structure over a recipe corpus.
type Index struct {
	byID    map[int64]Recipe
	ordered []Recipe // ascending id
	meals   map[int64]MealComposition
	mealIDs []int64

	userCourses map[int64][]int64
	userMeals   map[int64][]int64
}

// NewIndex validates and indexes a corpus. Recipes must have unique ids and a
// known category. Meals referencing unknown recipes keep the unknown ids but
// they are skipped wherever a recipe is needed.
func NewIndex(recipes []Recipe, meals []MealComposition, interactions []Interaction) (*Index, error) {
	idx := &Index{
		byID:        make(map[int64]Recipe, len(recipes)),
		meals:       make(map[int64]MealComposition, len(meals)),
		userCourses: make(map[int64][]int64),
		userMeals:   make(map[int64][]int64),
	}

	affiliations := make(map[int64][]int64)
	for _, m := range meals {
		if _, dup := idx.meals[m.ID]; dup {
			return nil, fmt.Errorf("duplicate meal id %d", m.ID)
		}
		m.RecipeIDs = append([]int64(nil), m.RecipeIDs...)
		idx.meals[m.ID] = m
		idx.mealIDs = append(idx.mealIDs, m.ID)
		for _, rid := range m.RecipeIDs {
			affiliations[rid] = append(affiliations[rid], m.ID)
		}
	}
	sort.Slice(idx.mealIDs, func(i, j int) bool { return idx.mealIDs[i] < idx.mealIDs[j] })

	for _, r := range recipes {
		if _, dup := idx.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %d", r.ID)
		}
		if _, err := ParseCategory(string(r.Category)); err != nil {
			return nil, fmt.Errorf("recipe %d: %w", r.ID, err)
		}
		scores := make(map[Scale]float64, len(r.Scores))
		for k, v := range r.Scores {
			scores[k] = v
		}
		r.Scores = scores
		r.Meals = dedupeSorted(affiliations[r.ID])
		idx.byID[r.ID] = r
		idx.ordered = append(idx.ordered, r)
	}
	sort.Slice(idx.ordered, func(i, j int) bool { return idx.ordered[i].ID < idx.ordered[j].ID })

	for _, in := range interactions {
		switch in.Kind {
		case CourseInteraction:
			idx.userCourses[in.UserID] = append(idx.userCourses[in.UserID], in.ItemID)
		case MealInteraction:
			idx.userMeals[in.UserID] = append(idx.userMeals[in.UserID], in.ItemID)
		default:
			return nil, fmt.Errorf("interaction for user %d: unknown kind %q", in.UserID, in.Kind)
		}
	}

	return idx, nil
}

// Len returns the number of recipes.
func (idx *Index) Len() int { return len(idx.ordered) }

// Get returns a recipe by id.
func (idx *Index) Get(id int64) (Recipe, error) {
	r, ok := idx.byID[id]
	if !ok {
		return Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return r, nil
}

// Query returns the recipes matching every predicate in f, ordered and
// truncated as described on Filter.
func (idx *Index) Query(f Filter) ([]Recipe, error) {
	matches, limit, err := idx.match(f)
	if err != nil {
		return nil, err
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns how many recipes match f before truncation.
func (idx *Index) Count(f Filter) (int, error) {
	matches, _, err := idx.match(f)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (idx *Index) match(f Filter) ([]Recipe, int, error) {
	var category Category
	if f.Category != "" {
		c, err := ParseCategory(f.Category)
		if err != nil {
			return nil, 0, err
		}
		category = c
	}
	for _, lim := range f.MaxScores {
		if _, err := ParseScale(string(lim.Scale)); err != nil || lim.Scale == "" {
			return nil, 0, fmt.Errorf("%w: unknown score scale %q", ErrInvalidQuery, lim.Scale)
		}
	}
	if _, err := ParseRankKey(string(f.RankBy)); err != nil {
		return nil, 0, err
	}
	if f.Limit < 0 {
		return nil, 0, fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, f.Limit)
	}
	limit := f.Limit
	if limit == 0 || limit > MaxResults {
		limit = MaxResults
	}

	var out []Recipe
	for _, r := range idx.ordered {
		if category != "" && r.Category != category {
			continue
		}
		if !withinLimits(r, f.MaxScores) {
			continue
		}
		out = append(out, r)
	}
	if f.RankBy != RankByID {
		rankRecipes(out, f.RankBy)
	}
	return out, limit, nil
}

func withinLimits(r Recipe, limits []ScoreLimit) bool {
	for _, lim := range limits {
		v, ok := r.Score(lim.Scale)
		if !ok || v > lim.Max {
			return false
		}
	}
	return true
}

// rankRecipes sorts ascending by key; recipes without the key go last, ties by id.
func rankRecipes(rs []Recipe, key RankKey) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, aok := rankValue(rs[i], key)
		b, bok := rankValue(rs[j], key)
		if aok != bok {
			return aok
		}
		if aok && a != b {
			return a < b
		}
		return rs[i].ID < rs[j].ID
	})
}

func rankValue(r Recipe, key RankKey) (float64, bool) {
	if key == RankByCombined {
		return r.Combined()
	}
	return r.Score(Scale(key))
}

func dedupeSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
