// Package corpus loads recipe corpora from a data source and turns them into
// shared, read-only recipe indexes.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mealwise/mealwise/internal/recipe"
)

// ErrUnknownSource is returned when a source names a kind no provider serves.
var ErrUnknownSource = errors.New("unknown corpus source")

// ErrSourceNotPermitted is returned by providers that restrict which
// locations may be read.
var ErrSourceNotPermitted = errors.New("corpus source not permitted")

// Corpus is the raw material of a recipe index.
type Corpus struct {
	Recipes      []recipe.Recipe
	Meals        []recipe.MealComposition
	Interactions []recipe.Interaction
}

// Index validates the corpus and builds an index over it.
func (c *Corpus) Index() (*recipe.Index, error) {
	idx, err := recipe.NewIndex(c.Recipes, c.Meals, c.Interactions)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return idx, nil
}

// Provider loads a corpus from a location. The meaning of location depends on
// the provider: a directory, an index name, a dataset or a schema.
type Provider interface {
	Load(ctx context.Context, location string) (*Corpus, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, location string) (*Corpus, error)

// Load calls f.
func (f ProviderFunc) Load(ctx context.Context, location string) (*Corpus, error) {
	return f(ctx, location)
}

// Sources dispatches "<kind>://<location>" to the provider registered for kind.
// A source without a scheme is handed to the "dir" provider.
type Sources map[string]Provider

// Load implements Provider.
func (s Sources) Load(ctx context.Context, source string) (*Corpus, error) {
	kind, location := SplitSource(source)
	p, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSource, kind, strings.Join(s.Kinds(), ", "))
	}
	return p.Load(ctx, location)
}

// Kinds lists the registered source kinds, sorted.
func (s Sources) Kinds() []string {
	kinds := make([]string, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// SplitSource splits "es://recipes" into ("es", "recipes").
func SplitSource(source string) (kind, location string) {
	if i := strings.Index(source, "://"); i > 0 {
		return source[:i], source[i+3:]
	}
	return "dir", source
}
