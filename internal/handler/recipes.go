package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mealwise/mealwise/internal/models"
	"github.com/mealwise/mealwise/internal/recipe"
)

// IndexResolver returns the recipe index for an optional source.
// *agent.MealHandler implements it.
type IndexResolver interface {
	Index(ctx context.Context, source *string) (*recipe.Index, error)
}

// RecipesHandler serves read-only recipe lookups without going through the model.
type RecipesHandler struct {
	indexes IndexResolver
}

func NewRecipesHandler(indexes IndexResolver) *RecipesHandler {
	return &RecipesHandler{indexes: indexes}
}

// List handles GET /api/v1/recipes
func (h *RecipesHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := h.indexes.Index(r.Context(), sourceParam(r))
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	recs, err := idx.Query(f)
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	total, err := idx.Count(f)
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}

	views := make([]models.RecipeView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, models.NewRecipeView(rec))
	}
	models.WriteJSON(w, http.StatusOK, models.RecipesResponse{
		Status:  "success",
		Recipes: views,
		Total:   total,
		Count:   len(views),
	})
}

// Get handles GET /api/v1/recipes/{id}
func (h *RecipesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := h.indexes.Index(r.Context(), sourceParam(r))
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	rec, err := idx.Get(id)
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, models.RecipeResponse{
		Status: "success",
		Recipe: models.NewRecipeView(rec),
	})
}

// Swap handles GET /api/v1/recipes/{id}/swap
func (h *RecipesHandler) Swap(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	scale, err := recipe.ParseScale(q.Get("scale"))
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := recipe.SwapRequest{RecipeID: id, Scale: scale}
	if req.MaxScore, err = floatParam(q.Get("max_score"), "max_score"); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	minImprovement, err := floatParam(q.Get("min_improvement"), "min_improvement")
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if minImprovement != nil {
		req.MinImprovement = *minImprovement
	}

	idx, err := h.indexes.Index(r.Context(), sourceParam(r))
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	orig, err := idx.Get(id)
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}

	resp := models.SwapResponse{
		Status:   "success",
		Scale:    string(scale),
		Original: models.NewRecipeView(orig),
	}
	alt, err := idx.RecommendSwap(req)
	switch {
	case errors.Is(err, recipe.ErrNotFound):
		// The original exists, so not-found here means nothing healthier qualifies.
		resp.Message = err.Error()
		models.WriteJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		models.WriteError(w, statusFor(err), err.Error())
		return
	}
	before, _ := orig.Score(scale)
	after, _ := alt.Score(scale)
	view := models.NewRecipeView(alt)
	resp.Alternative = &view
	resp.Improvement = before - after
	models.WriteJSON(w, http.StatusOK, resp)
}

func recipeID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid recipe id %q", raw)
	}
	return id, nil
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be a number", name, raw)
	}
	return &v, nil
}

// filterFromQuery builds a recipe filter from category, max_fsa, max_who,
// rank_by and limit query parameters.
func filterFromQuery(r *http.Request) (recipe.Filter, error) {
	q := r.URL.Query()
	f := recipe.Filter{Category: q.Get("category")}

	for _, p := range []struct {
		param string
		scale recipe.Scale
	}{
		{"max_fsa", recipe.FSA},
		{"max_who", recipe.WHO},
	} {
		v, err := floatParam(q.Get(p.param), p.param)
		if err != nil {
			return recipe.Filter{}, err
		}
		if v != nil {
			f.MaxScores = append(f.MaxScores, recipe.ScoreLimit{Scale: p.scale, Max: *v})
		}
	}

	rank, err := recipe.ParseRankKey(q.Get("rank_by"))
	if err != nil {
		return recipe.Filter{}, err
	}
	f.RankBy = rank

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return recipe.Filter{}, fmt.Errorf("invalid limit %q: must be a non-negative integer", raw)
		}
		f.Limit = n
	}
	return f, nil
}
