package service

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mealwise/mealwise/internal/recipe"
	"google.golang.org/api/googleapi"
)

func searchResponse(docs ...map[string]interface{}) map[string]interface{} {
	hits := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, map[string]interface{}{"_id": "x", "_source": d})
	}
	return map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": float64(len(docs))},
			"hits":  hits,
		},
	}
}

// ─── Record conversion ────────────────────────────────────────────────────────

func TestRecipeRecordToRecipe(t *testing.T) {
	fsa := 4.5
	tests := []struct {
		name    string
		rec     recipeRecord
		want    recipe.Category
		wantErr bool
	}{
		{"named category", recipeRecord{ID: 1, Category: "main", FSA: &fsa}, recipe.Main, false},
		{"numeric category", recipeRecord{ID: 2, Category: "2"}, recipe.Dessert, false},
		{"unknown category", recipeRecord{ID: 3, Category: "brunch"}, "", true},
		{"index out of range", recipeRecord{ID: 4, Category: "5"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.rec.toRecipe()
			if tt.wantErr {
				if !errors.Is(err, recipe.ErrInvalidQuery) {
					t.Errorf("err = %v, want ErrInvalidQuery", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r.Category != tt.want {
				t.Errorf("category = %s, want %s", r.Category, tt.want)
			}
		})
	}

	r, _ := recipeRecord{ID: 7, Category: "0", FSA: &fsa}.toRecipe()
	if r.Name != "Course_7" {
		t.Errorf("default name = %q", r.Name)
	}
	if v, ok := r.Score(recipe.FSA); !ok || v != 4.5 {
		t.Errorf("fsa = %v %v", v, ok)
	}
	if _, ok := r.Score(recipe.WHO); ok {
		t.Error("who should be unscored")
	}
}

func TestGroupMeals(t *testing.T) {
	got := groupMeals([]mealRecord{
		{MealID: 20, CourseID: 3}, {MealID: 10, CourseID: 1}, {MealID: 20, CourseID: 4}, {MealID: 10, CourseID: 2},
	})
	if len(got) != 2 || got[0].ID != 20 || got[1].ID != 10 {
		t.Fatalf("meals = %+v", got)
	}
	if len(got[0].RecipeIDs) != 2 || got[0].RecipeIDs[1] != 4 {
		t.Errorf("meal 20 = %v", got[0].RecipeIDs)
	}
}

func TestToInteractions(t *testing.T) {
	if _, err := toInteractions([]interactionRecord{{UserID: 1, Kind: "snack", ItemID: 2}}); err == nil {
		t.Error("unknown kind should fail")
	}
	got, err := toInteractions([]interactionRecord{{UserID: 1, Kind: "meal", ItemID: 2}})
	if err != nil || len(got) != 1 || got[0].Kind != recipe.MealInteraction {
		t.Errorf("got %+v, %v", got, err)
	}
}

// ─── Elasticsearch decoding ───────────────────────────────────────────────────

func TestDecodeRecipeHits(t *testing.T) {
	raw := searchResponse(
		map[string]interface{}{"id": float64(1), "name": "Salad", "category": "appetizer", "fsa_score": 3.0, "tags": []interface{}{"vegan"}},
		map[string]interface{}{"id": "2", "category": float64(1), "who_score": 6.0},
	)
	recs, err := decodeRecipeHits(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].Name != "Salad" || *recs[0].FSA != 3.0 || recs[0].WHO != nil || recs[0].Tags[0] != "vegan" {
		t.Errorf("record 0 = %+v", recs[0])
	}
	if recs[1].ID != 2 || recs[1].Category != "1" {
		t.Errorf("record 1 = %+v", recs[1])
	}

	if _, err := decodeRecipeHits(searchResponse(map[string]interface{}{"name": "no id"})); err == nil {
		t.Error("missing id should fail")
	}
}

func TestDecodeMealHits(t *testing.T) {
	raw := searchResponse(
		map[string]interface{}{"meal_id": float64(5), "course_ids": []interface{}{float64(1), float64(2)}},
	)
	meals, err := decodeMealHits(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(meals) != 1 || meals[0].ID != 5 || len(meals[0].RecipeIDs) != 2 {
		t.Errorf("meals = %+v", meals)
	}

	bad := searchResponse(map[string]interface{}{"meal_id": float64(5), "course_ids": []interface{}{"x"}})
	if _, err := decodeMealHits(bad); err == nil {
		t.Error("non-numeric course id should fail")
	}
}

func TestDecodeInteractionHits(t *testing.T) {
	raw := searchResponse(map[string]interface{}{"user_id": float64(9), "kind": "course", "item_id": float64(3)})
	got, err := decodeInteractionHits(raw)
	if err != nil || len(got) != 1 || got[0].ItemID != 3 {
		t.Errorf("got %+v, %v", got, err)
	}
}

func TestIndexAllowed(t *testing.T) {
	patterns := []string{"recipes*", "mealrec"}
	tests := map[string]bool{
		"recipes":         true,
		"recipes_meals":   true,
		"mealrec":         true,
		"mealrec_meals":   false,
		"logs-2024.01.01": false,
	}
	for index, want := range tests {
		if got := indexAllowed(patterns, index); got != want {
			t.Errorf("indexAllowed(%q) = %v, want %v", index, got, want)
		}
	}
	if !indexAllowed(nil, "anything") {
		t.Error("no patterns should allow everything")
	}
}

// ─── Optional tables ──────────────────────────────────────────────────────────

func TestOptionalTables(t *testing.T) {
	if err := optionalRelation(&pgconn.PgError{Code: undefinedTable}, "meal_courses"); err != nil {
		t.Errorf("missing pg table: %v", err)
	}
	if err := optionalRelation(&pgconn.PgError{Code: "42501"}, "meal_courses"); err == nil {
		t.Error("permission error should surface")
	}
	if err := optionalTable(&googleapi.Error{Code: 404}, "ds", "meal_courses"); err != nil {
		t.Errorf("missing bq table: %v", err)
	}
	if err := optionalTable(&googleapi.Error{Code: 403}, "ds", "meal_courses"); err == nil {
		t.Error("forbidden should surface")
	}
}
