package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/rs/zerolog/log"
)

// MealRecDefaults are the scores the MealRec+ tooling assumes for courses
// missing from the healthiness files.
var MealRecDefaults = map[recipe.Scale]float64{
	recipe.FSA: 8.0,
	recipe.WHO: 7.0,
}

// DirProvider reads a MealRec+ dataset directory:
//
//	course_category.txt          course_idx \t category (0 appetizer, 1 main, 2 dessert)
//	healthiness/course_fsa.txt   one score per line, line number = course_idx
//	healthiness/course_who.txt
//	meal_course.txt              meal_idx \t course_idx
//	meta_data/course2index.txt   course_id \t course_idx
//	user_course.txt              user_idx \t course_idx
//	user_meal_{train,test,tune}.txt  user_idx \t meal_idx
//
// Only course_category.txt is required.
type DirProvider struct {
	// DefaultScores fills scales a course has no healthiness line for.
	// Nil leaves those scales unscored.
	DefaultScores map[recipe.Scale]float64
}

var userMealSplits = []string{"train", "test", "tune"}

// Load implements Provider.
func (p DirProvider) Load(ctx context.Context, dir string) (*Corpus, error) {
	if dir == "" {
		return nil, fmt.Errorf("corpus dir: empty path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categories := map[int64]recipe.Category{}
	var order []int64
	err := readPairs(filepath.Join(dir, "course_category.txt"), func(idx, cat int64) error {
		c, err := recipe.CategoryFromIndex(int(cat))
		if err != nil {
			return err
		}
		if _, dup := categories[idx]; !dup {
			order = append(order, idx)
		}
		categories[idx] = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	scores := make(map[recipe.Scale][]float64, len(recipe.Scales))
	for _, s := range recipe.Scales {
		vals, err := readScores(filepath.Join(dir, "healthiness", "course_"+string(s)+".txt"))
		if err != nil {
			return nil, fmt.Errorf("load %s scores: %w", s, err)
		}
		scores[s] = vals
	}

	names := map[int64]int64{}
	err = optional(readPairs(filepath.Join(dir, "meta_data", "course2index.txt"), func(realID, idx int64) error {
		names[idx] = realID
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("load course ids: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Corpus{}
	for _, idx := range order {
		r := recipe.Recipe{
			ID:       idx,
			Name:     courseName(idx, names),
			Category: categories[idx],
			Scores:   make(map[recipe.Scale]float64, len(recipe.Scales)),
		}
		for _, s := range recipe.Scales {
			if idx >= 0 && idx < int64(len(scores[s])) {
				r.Scores[s] = scores[s][idx]
			} else if v, ok := p.DefaultScores[s]; ok {
				r.Scores[s] = v
			}
		}
		c.Recipes = append(c.Recipes, r)
	}

	mealPos := map[int64]int{}
	err = optional(readPairs(filepath.Join(dir, "meal_course.txt"), func(meal, course int64) error {
		i, ok := mealPos[meal]
		if !ok {
			i = len(c.Meals)
			mealPos[meal] = i
			c.Meals = append(c.Meals, recipe.MealComposition{ID: meal})
		}
		c.Meals[i].RecipeIDs = append(c.Meals[i].RecipeIDs, course)
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}

	err = optional(readPairs(filepath.Join(dir, "user_course.txt"), func(user, course int64) error {
		c.Interactions = append(c.Interactions, recipe.Interaction{UserID: user, Kind: recipe.CourseInteraction, ItemID: course})
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("load user courses: %w", err)
	}
	for _, split := range userMealSplits {
		err = optional(readPairs(filepath.Join(dir, "user_meal_"+split+".txt"), func(user, meal int64) error {
			c.Interactions = append(c.Interactions, recipe.Interaction{UserID: user, Kind: recipe.MealInteraction, ItemID: meal})
			return nil
		}))
		if err != nil {
			return nil, fmt.Errorf("load user meals (%s): %w", split, err)
		}
	}

	log.Info().
		Str("dir", dir).
		Int("recipes", len(c.Recipes)).
		Int("meals", len(c.Meals)).
		Int("interactions", len(c.Interactions)).
		Msg("corpus loaded from directory")
	return c, nil
}

func courseName(idx int64, realIDs map[int64]int64) string {
	if id, ok := realIDs[idx]; ok {
		return "Course_" + strconv.FormatInt(id, 10)
	}
	return "Course_" + strconv.FormatInt(idx, 10)
}

// optional turns a missing file into a warning.
func optional(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) && errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("file", pe.Path).Msg("optional corpus file missing, skipping")
		return nil
	}
	return err
}

// readPairs calls fn for every "a \t b" line of an integer pair file. Blank
// lines are skipped; extra columns are ignored.
func readPairs(path string, fn func(a, b int64) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return fmt.Errorf("%s:%d: want two columns, got %q", path, line, text)
		}
		a, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		b, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(a, b); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	return sc.Err()
}

// readScores reads one float per line. A missing file yields no scores.
func readScores(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, optional(err)
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	line, blank := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			blank = line
			continue
		}
		// the line number is the course index, so gaps are only allowed at the end
		if blank > 0 {
			return nil, fmt.Errorf("%s:%d: empty score line", path, blank)
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, v)
	}
	return out, sc.Err()
}
