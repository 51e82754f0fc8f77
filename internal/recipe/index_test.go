package recipe_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mealwise/mealwise/internal/recipe"
)

func rec(id int64, name string, c recipe.Category, fsa, who float64) recipe.Recipe {
	return recipe.Recipe{
		ID:       id,
		Name:     name,
		Category: c,
		Scores:   map[recipe.Scale]float64{recipe.FSA: fsa, recipe.WHO: who},
	}
}

func testIndex(t *testing.T) *recipe.Index {
	t.Helper()
	recipes := []recipe.Recipe{
		rec(5, "Garden Salad", recipe.Appetizer, 3.0, 4.0),
		rec(1, "Grilled Herb Chicken", recipe.Main, 6.2, 5.0),
		rec(2, "Cream Cake", recipe.Dessert, 9.0, 8.0),
		rec(3, "Beef Lasagne", recipe.Main, 9.5, 9.0),
		rec(4, "Lentil Stew", recipe.Main, 4.0, 6.0),
		rec(6, "Fruit Sorbet", recipe.Dessert, 6.5, 3.0),
		rec(7, "Bruschetta", recipe.Appetizer, 5.5, 5.5),
		{ID: 8, Name: "Mystery Soup", Category: recipe.Appetizer},
	}
	meals := []recipe.MealComposition{
		{ID: 100, RecipeIDs: []int64{5, 1, 2}},
		{ID: 101, RecipeIDs: []int64{7, 3, 6}},
		{ID: 102, RecipeIDs: []int64{5, 4, 6}},
	}
	interactions := []recipe.Interaction{
		{UserID: 9, Kind: recipe.CourseInteraction, ItemID: 1},
		{UserID: 9, Kind: recipe.CourseInteraction, ItemID: 4},
		{UserID: 9, Kind: recipe.CourseInteraction, ItemID: 2},
		{UserID: 9, Kind: recipe.MealInteraction, ItemID: 100},
	}
	idx, err := recipe.NewIndex(recipes, meals, interactions)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func ids(rs []recipe.Recipe) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

// ─── Construction ─────────────────────────────────────────────────────────────

func TestNewIndexRejectsBadCorpus(t *testing.T) {
	tests := []struct {
		name    string
		recipes []recipe.Recipe
		meals   []recipe.MealComposition
	}{
		{"duplicate id", []recipe.Recipe{rec(1, "a", recipe.Main, 1, 1), rec(1, "b", recipe.Main, 1, 1)}, nil},
		{"unknown category", []recipe.Recipe{rec(1, "a", "brunch", 1, 1)}, nil},
		{"duplicate meal", nil, []recipe.MealComposition{{ID: 1}, {ID: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := recipe.NewIndex(tt.recipes, tt.meals, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMealAffiliations(t *testing.T) {
	idx := testIndex(t)
	r, err := idx.Get(5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := []int64{100, 102}; !reflect.DeepEqual(r.Meals, want) {
		t.Errorf("meals = %v, want %v", r.Meals, want)
	}
}

// ─── Query ────────────────────────────────────────────────────────────────────

func TestQueryScenario(t *testing.T) {
	idx, err := recipe.NewIndex([]recipe.Recipe{
		{ID: 1, Name: "Grilled Herb Chicken", Category: recipe.Main, Scores: map[recipe.Scale]float64{recipe.FSA: 6.2}},
		{ID: 2, Name: "Cream Cake", Category: recipe.Dessert, Scores: map[recipe.Scale]float64{recipe.FSA: 9.0}},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	got, err := idx.Query(recipe.Filter{
		Category:  "main",
		MaxScores: []recipe.ScoreLimit{{Scale: recipe.FSA, Max: 8.0}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Query = %v, want [1]", ids(got))
	}
}

func TestQuery(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name   string
		filter recipe.Filter
		want   []int64
	}{
		{"everything by id", recipe.Filter{}, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"category", recipe.Filter{Category: "main"}, []int64{1, 3, 4}},
		{"fsa ceiling excludes unscored", recipe.Filter{MaxScores: []recipe.ScoreLimit{{Scale: recipe.FSA, Max: 6.0}}}, []int64{4, 5, 7}},
		{"conjunctive", recipe.Filter{Category: "main", MaxScores: []recipe.ScoreLimit{{Scale: recipe.FSA, Max: 7}, {Scale: recipe.WHO, Max: 5.5}}}, []int64{1}},
		{"ranked by fsa", recipe.Filter{Category: "main", RankBy: recipe.RankByFSA}, []int64{4, 1, 3}},
		{"ranked by combined, unscored last", recipe.Filter{Category: "appetizer", RankBy: recipe.RankByCombined}, []int64{5, 7, 8}},
		{"limit", recipe.Filter{RankBy: recipe.RankByWHO, Limit: 2}, []int64{6, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Query = %v, want %v", ids(got), tt.want)
			}
			for _, r := range got {
				for _, lim := range tt.filter.MaxScores {
					if s, ok := r.Score(lim.Scale); !ok || s > lim.Max {
						t.Errorf("recipe %d violates %s <= %v", r.ID, lim.Scale, lim.Max)
					}
				}
			}
		})
	}
}

func TestQueryInvalid(t *testing.T) {
	idx := testIndex(t)
	bad := []recipe.Filter{
		{Category: "brunch"},
		{MaxScores: []recipe.ScoreLimit{{Scale: "sugar", Max: 1}}},
		{MaxScores: []recipe.ScoreLimit{{Scale: "", Max: 1}}},
		{RankBy: "tastiness"},
		{Limit: -1},
	}
	for _, f := range bad {
		if _, err := idx.Query(f); !errors.Is(err, recipe.ErrInvalidQuery) {
			t.Errorf("Query(%+v) err = %v, want ErrInvalidQuery", f, err)
		}
	}
}

func TestQueryCapsLimit(t *testing.T) {
	var rs []recipe.Recipe
	for i := int64(1); i <= 80; i++ {
		rs = append(rs, rec(i, "r", recipe.Main, float64(i%10), 1))
	}
	idx, err := recipe.NewIndex(rs, nil, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	for _, limit := range []int{0, 500} {
		got, err := idx.Query(recipe.Filter{Limit: limit})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != recipe.MaxResults {
			t.Errorf("limit %d: got %d results, want %d", limit, len(got), recipe.MaxResults)
		}
	}
	n, err := idx.Count(recipe.Filter{})
	if err != nil || n != 80 {
		t.Errorf("Count = %d, %v; want 80", n, err)
	}
}

func TestQueryIdempotent(t *testing.T) {
	idx := testIndex(t)
	f := recipe.Filter{RankBy: recipe.RankByCombined, Limit: 5}
	a, _ := idx.Query(f)
	b, _ := idx.Query(f)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated query returned different results")
	}
}

func TestGetNotFound(t *testing.T) {
	idx := testIndex(t)
	if _, err := idx.Get(999); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("Get(999) err = %v, want ErrNotFound", err)
	}
}

// ─── Swap ─────────────────────────────────────────────────────────────────────

func TestRecommendSwap(t *testing.T) {
	idx := testIndex(t)
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		req     recipe.SwapRequest
		want    int64
		wantErr error
	}{
		{"healthiest main", recipe.SwapRequest{RecipeID: 3}, 4, nil},
		{"respects max score", recipe.SwapRequest{RecipeID: 3, MaxScore: f(3.0)}, 0, recipe.ErrNotFound},
		{"who scale", recipe.SwapRequest{RecipeID: 3, Scale: recipe.WHO}, 1, nil},
		{"min improvement", recipe.SwapRequest{RecipeID: 1, MinImprovement: 2.5}, 0, recipe.ErrNotFound},
		{"already healthiest", recipe.SwapRequest{RecipeID: 4}, 0, recipe.ErrNotFound},
		{"no qualifying dessert", recipe.SwapRequest{RecipeID: 2, MaxScore: f(6.0)}, 0, recipe.ErrNotFound},
		{"unknown recipe", recipe.SwapRequest{RecipeID: 999}, 0, recipe.ErrNotFound},
		{"bad scale", recipe.SwapRequest{RecipeID: 1, Scale: "sugar"}, 0, recipe.ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.RecommendSwap(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RecommendSwap: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("swap = %d, want %d", got.ID, tt.want)
			}
		})
	}
}

func TestRecommendSwapTieBreak(t *testing.T) {
	idx, err := recipe.NewIndex([]recipe.Recipe{
		rec(10, "orig", recipe.Dessert, 9, 9),
		rec(12, "b", recipe.Dessert, 4, 4),
		rec(11, "a", recipe.Dessert, 4, 4),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	got, err := idx.RecommendSwap(recipe.SwapRequest{RecipeID: 10})
	if err != nil {
		t.Fatalf("RecommendSwap: %v", err)
	}
	if got.ID != 11 {
		t.Errorf("tie broke to %d, want 11", got.ID)
	}
}

// ─── Plan ─────────────────────────────────────────────────────────────────────

func TestPlanMeal(t *testing.T) {
	idx := testIndex(t)
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		req     recipe.PlanRequest
		want    []int64
		missing []recipe.Category
		joint   float64
	}{
		{"balanced sum", recipe.PlanRequest{}, []int64{5, 4, 6}, nil, 13.5},
		{"tight sum ceiling drops dessert", recipe.PlanRequest{Ceiling: f(10)}, []int64{5, 4}, []recipe.Category{recipe.Dessert}, 7},
		{"max mode", recipe.PlanRequest{Mode: recipe.BudgetMax, HealthFocus: "weight_loss"}, []int64{5, 4}, []recipe.Category{recipe.Dessert}, 4},
		{"subset", recipe.PlanRequest{Categories: []recipe.Category{recipe.Dessert}, Scale: recipe.WHO}, []int64{6}, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := idx.PlanMeal(tt.req)
			if err != nil {
				t.Fatalf("PlanMeal: %v", err)
			}
			var got []int64
			for _, c := range plan.Courses {
				got = append(got, c.Recipe.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("courses = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(plan.Missing, tt.missing) {
				t.Errorf("missing = %v, want %v", plan.Missing, tt.missing)
			}
			if plan.JointScore != tt.joint {
				t.Errorf("joint = %v, want %v", plan.JointScore, tt.joint)
			}
			if plan.JointScore > plan.Ceiling {
				t.Errorf("joint %v exceeds ceiling %v", plan.JointScore, plan.Ceiling)
			}
		})
	}
}

func TestPlanMealInvalid(t *testing.T) {
	idx := testIndex(t)
	bad := []recipe.PlanRequest{
		{Mode: "avg"},
		{HealthFocus: "keto"},
		{Categories: []recipe.Category{"brunch"}},
		{Categories: []recipe.Category{recipe.Main, recipe.Main}},
	}
	for _, req := range bad {
		if _, err := idx.PlanMeal(req); !errors.Is(err, recipe.ErrInvalidQuery) {
			t.Errorf("PlanMeal(%+v) err = %v, want ErrInvalidQuery", req, err)
		}
	}
}

// ─── Meals & users ────────────────────────────────────────────────────────────

func TestSimilarMeals(t *testing.T) {
	idx := testIndex(t)
	got, total, err := idx.SimilarMeals(1, 5)
	if err != nil {
		t.Fatalf("SimilarMeals: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("got %d (total %d), want 2", len(got), total)
	}
	// meal 102 averages (3+4+6.5)/3 = 4.5, meal 101 averages 7.17
	if got[0].Meal.ID != 102 || got[1].Meal.ID != 101 {
		t.Errorf("order = [%d %d], want [102 101]", got[0].Meal.ID, got[1].Meal.ID)
	}
}

func TestUserHistory(t *testing.T) {
	idx := testIndex(t)
	h, err := idx.UserHistory(9)
	if err != nil {
		t.Fatalf("UserHistory: %v", err)
	}
	if h.Courses != 3 || h.Meals != 1 {
		t.Errorf("counts = %d/%d, want 3/1", h.Courses, h.Meals)
	}
	if h.FavoriteCourse != recipe.Main {
		t.Errorf("favorite = %s, want main", h.FavoriteCourse)
	}
	if _, err := idx.UserHistory(404); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}

func TestSummary(t *testing.T) {
	idx := testIndex(t)
	sum := idx.Summary()
	if len(sum) != 3 || sum[0].Category != recipe.Appetizer {
		t.Fatalf("summary = %+v", sum)
	}
	if sum[1].Recipes != 3 || sum[1].MinFSA != 4.0 || sum[1].MaxFSA != 9.5 {
		t.Errorf("main summary = %+v", sum[1])
	}
}

func TestHealthRating(t *testing.T) {
	tests := map[float64]string{3: "excellent", 5: "very good", 8: "good", 9.9: "fair", 12: "poor"}
	for score, want := range tests {
		if got := recipe.HealthRating(score); got != want {
			t.Errorf("HealthRating(%v) = %q, want %q", score, got, want)
		}
	}
}
