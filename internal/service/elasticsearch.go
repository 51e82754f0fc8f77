package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mealwise/mealwise/internal/corpus"
	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/rs/zerolog/log"
)

// DefaultMaxDocs bounds how many documents one corpus index may contribute.
const DefaultMaxDocs = 10000

// ElasticsearchSource loads a corpus from Elasticsearch. For a location
// "recipes" it reads recipe documents from the "recipes" index, meal
// compositions from "recipes_meals" and user interactions from
// "recipes_interactions"; the last two are optional.
type ElasticsearchSource struct {
	client          *elasticsearch.Client
	allowedPatterns []string // index patterns that are permitted
	maxDocs         int
}

// ElasticsearchConfig holds connection settings.
type ElasticsearchConfig struct {
	Scheme          string
	Host            string
	Port            int
	User            string
	Password        string
	VerifyCerts     bool
	MaxRetries      int
	MaxDocs         int
	AllowedPatterns []string
}

// NewElasticsearchSource creates an ES client using go-elasticsearch/v8.
func NewElasticsearchSource(cfg ElasticsearchConfig) (*ElasticsearchSource, error) {
	addr := fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port)

	esCfg := elasticsearch.Config{
		Addresses:  []string{addr},
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.User != "" {
		esCfg.Username = cfg.User
		esCfg.Password = cfg.Password
	}
	if !cfg.VerifyCerts {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	maxDocs := cfg.MaxDocs
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocs
	}
	return &ElasticsearchSource{
		client:          client,
		allowedPatterns: cfg.AllowedPatterns,
		maxDocs:         maxDocs,
	}, nil
}

// IsIndexAllowed returns true if the index matches any of the allowed patterns.
// If no patterns are configured, all indices are allowed.
func (s *ElasticsearchSource) IsIndexAllowed(index string) bool {
	return indexAllowed(s.allowedPatterns, index)
}

func indexAllowed(patterns []string, index string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, index)
		if err == nil && matched {
			return true
		}
		// Also allow if index starts with the pattern prefix (without wildcard)
		prefix := strings.TrimSuffix(pattern, "*")
		if prefix != pattern && strings.HasPrefix(index, prefix) {
			return true
		}
	}
	return false
}

// TestConnection pings the cluster.
func (s *ElasticsearchSource) TestConnection(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

// Load implements corpus.Provider.
func (s *ElasticsearchSource) Load(ctx context.Context, index string) (*corpus.Corpus, error) {
	if index == "" {
		return nil, fmt.Errorf("elasticsearch source: empty index name")
	}
	if !s.IsIndexAllowed(index) {
		return nil, fmt.Errorf("index %q: %w", index, corpus.ErrSourceNotPermitted)
	}

	raw, err := s.searchAll(ctx, index, "id")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("recipe index %q does not exist", index)
	}
	recs, err := decodeRecipeHits(raw)
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", index, err)
	}
	c := &corpus.Corpus{}
	if c.Recipes, err = toRecipes(recs); err != nil {
		return nil, fmt.Errorf("index %q: %w", index, err)
	}

	if raw, err = s.searchAll(ctx, index+"_meals", "meal_id"); err != nil {
		return nil, err
	}
	if raw != nil {
		if c.Meals, err = decodeMealHits(raw); err != nil {
			return nil, fmt.Errorf("index %q: %w", index+"_meals", err)
		}
	}

	if raw, err = s.searchAll(ctx, index+"_interactions", "user_id"); err != nil {
		return nil, err
	}
	if raw != nil {
		var rows []interactionRecord
		if rows, err = decodeInteractionHits(raw); err == nil {
			c.Interactions, err = toInteractions(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", index+"_interactions", err)
		}
	}

	log.Info().
		Str("index", index).
		Int("recipes", len(c.Recipes)).
		Int("meals", len(c.Meals)).
		Int("interactions", len(c.Interactions)).
		Msg("corpus loaded from elasticsearch")
	return c, nil
}

// searchAll fetches up to maxDocs documents sorted by a field. A missing
// index yields nil, nil.
func (s *ElasticsearchSource) searchAll(ctx context.Context, index, sortField string) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"size":  s.maxDocs,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{sortField: "asc"}},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		log.Warn().Str("index", index).Msg("corpus index missing, skipping")
		return nil, nil
	}
	return decodeBody(res.Body, res.Status())
}

func decodeBody(r io.Reader, status string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5") {
		if errObj, ok := result["error"]; ok {
			return nil, fmt.Errorf("elasticsearch error [%s]: %v", status, errObj)
		}
		return nil, fmt.Errorf("elasticsearch error: %s", status)
	}
	return result, nil
}

// hitSources returns the _source of every hit in a search response.
func hitSources(raw map[string]interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	hitsObj, _ := raw["hits"].(map[string]interface{})
	hits, _ := hitsObj["hits"].([]interface{})
	for _, h := range hits {
		hm, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		if src, ok := hm["_source"].(map[string]interface{}); ok {
			out = append(out, src)
		}
	}
	return out
}

func intField(doc map[string]interface{}, key string) (int64, error) {
	switch v := doc[key].(type) {
	case float64:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("field %s: missing or not a number", key)
}

func floatField(doc map[string]interface{}, key string) *float64 {
	if v, ok := doc[key].(float64); ok {
		return &v
	}
	return nil
}

func stringsField(doc map[string]interface{}, key string) []string {
	list, _ := doc[key].([]interface{})
	var out []string
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func decodeRecipeHits(raw map[string]interface{}) ([]recipeRecord, error) {
	var out []recipeRecord
	for _, doc := range hitSources(raw) {
		id, err := intField(doc, "id")
		if err != nil {
			return nil, err
		}
		r := recipeRecord{
			ID:          id,
			FSA:         floatField(doc, "fsa_score"),
			WHO:         floatField(doc, "who_score"),
			Ingredients: stringsField(doc, "ingredients"),
			Tags:        stringsField(doc, "tags"),
		}
		r.Name, _ = doc["name"].(string)
		switch c := doc["category"].(type) {
		case string:
			r.Category = c
		case float64:
			r.Category = fmt.Sprint(int(c))
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeMealHits(raw map[string]interface{}) ([]recipe.MealComposition, error) {
	var rows []mealRecord
	for _, doc := range hitSources(raw) {
		mealID, err := intField(doc, "meal_id")
		if err != nil {
			return nil, err
		}
		ids, _ := doc["course_ids"].([]interface{})
		for _, v := range ids {
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("meal %d: course id %v is not a number", mealID, v)
			}
			rows = append(rows, mealRecord{MealID: mealID, CourseID: int64(f)})
		}
	}
	return groupMeals(rows), nil
}

func decodeInteractionHits(raw map[string]interface{}) ([]interactionRecord, error) {
	var out []interactionRecord
	for _, doc := range hitSources(raw) {
		user, err := intField(doc, "user_id")
		if err != nil {
			return nil, err
		}
		item, err := intField(doc, "item_id")
		if err != nil {
			return nil, err
		}
		kind, _ := doc["kind"].(string)
		out = append(out, interactionRecord{UserID: user, Kind: kind, ItemID: item})
	}
	return out, nil
}
