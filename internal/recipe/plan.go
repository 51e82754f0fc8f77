package recipe

import "fmt"

// BudgetMode says how per-course scores combine against a plan's ceiling.
type BudgetMode string

const (
	BudgetSum BudgetMode = "sum"
	BudgetMax BudgetMode = "max"
)

// HealthFocusThresholds is the per-course score threshold implied by each
// dietary focus.
var HealthFocusThresholds = map[string]float64{
	"weight_loss":   5.0,
	"heart_healthy": 6.0,
	"low_sodium":    7.0,
	"balanced":      8.0,
}

// DefaultHealthFocus applies when a plan names neither a focus nor a ceiling.
const DefaultHealthFocus = "balanced"

// PlanRequest describes a multi-course meal to generate.
type PlanRequest struct {
	// Categories defaults to appetizer, main, dessert.
	Categories  []Category
	Scale       Scale
	Mode        BudgetMode
	HealthFocus string
	// Ceiling overrides the ceiling derived from HealthFocus.
	Ceiling *float64
}

// Course is one pick in a plan.
type Course struct {
	Category Category
	Recipe   Recipe
	Score    float64
}

// Plan is the result of PlanMeal.
type Plan struct {
	Courses     []Course
	Missing     []Category
	Scale       Scale
	Mode        BudgetMode
	HealthFocus string
	Ceiling     float64
	JointScore  float64
}

// PlanMeal picks one recipe per requested category, greedily taking the
// lowest-scoring candidate in each category (ties by id) while the joint score
// stays within the ceiling. A category whose healthiest candidate would break
// the budget is reported in Missing.
func (idx *Index) PlanMeal(req PlanRequest) (Plan, error) {
	scale, err := ParseScale(string(req.Scale))
	if err != nil {
		return Plan{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = BudgetSum
	}
	if mode != BudgetSum && mode != BudgetMax {
		return Plan{}, fmt.Errorf("%w: unknown budget mode %q (use sum or max)", ErrInvalidQuery, mode)
	}
	cats := req.Categories
	if len(cats) == 0 {
		cats = Categories
	}
	seen := make(map[Category]bool, len(cats))
	for _, c := range cats {
		if _, err := ParseCategory(string(c)); err != nil {
			return Plan{}, err
		}
		if seen[c] {
			return Plan{}, fmt.Errorf("%w: category %q requested twice", ErrInvalidQuery, c)
		}
		seen[c] = true
	}

	focus := req.HealthFocus
	if focus == "" {
		focus = DefaultHealthFocus
	}
	var ceiling float64
	if req.Ceiling != nil {
		ceiling = *req.Ceiling
	} else {
		threshold, ok := HealthFocusThresholds[focus]
		if !ok {
			return Plan{}, fmt.Errorf("%w: unknown health focus %q", ErrInvalidQuery, focus)
		}
		ceiling = threshold
		if mode == BudgetSum {
			ceiling = threshold * float64(len(cats))
		}
	}

	plan := Plan{Scale: scale, Mode: mode, HealthFocus: focus, Ceiling: ceiling}
	for _, c := range cats {
		best, score, ok := idx.healthiest(c, scale)
		if !ok {
			plan.Missing = append(plan.Missing, c)
			continue
		}
		next := plan.JointScore
		if mode == BudgetSum {
			next += score
		} else if score > next {
			next = score
		}
		if next > ceiling {
			plan.Missing = append(plan.Missing, c)
			continue
		}
		plan.JointScore = next
		plan.Courses = append(plan.Courses, Course{Category: c, Recipe: best, Score: score})
	}
	return plan, nil
}

func (idx *Index) healthiest(c Category, scale Scale) (Recipe, float64, bool) {
	var (
		best  Recipe
		score float64
		found bool
	)
	for _, r := range idx.ordered {
		if r.Category != c {
			continue
		}
		s, ok := r.Score(scale)
		if !ok {
			continue
		}
		if !found || s < score {
			best, score, found = r, s, true
		}
	}
	return best, score, found
}

// Average returns the mean score of the plan's courses on a scale, counting
// only courses that carry that scale.
func (p Plan) Average(s Scale) float64 {
	var sum float64
	var n int
	for _, c := range p.Courses {
		if v, ok := c.Recipe.Score(s); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
