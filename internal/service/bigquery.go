package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/mealwise/mealwise/internal/corpus"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQuerySource loads a corpus from the recipes, meal_courses and
// user_interactions tables of a BigQuery dataset. The last two are optional.
type BigQuerySource struct {
	client    *bigquery.Client
	projectID string
	location  string
	timeout   time.Duration
}

// NewBigQuerySource creates a new BigQuery client.
func NewBigQuerySource(ctx context.Context, projectID, credentialsFile, location string, timeout time.Duration) (*BigQuerySource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &BigQuerySource{
		client:    client,
		projectID: projectID,
		location:  location,
		timeout:   timeout,
	}, nil
}

// Close releases the BigQuery client.
func (s *BigQuerySource) Close() error {
	return s.client.Close()
}

// TestConnection verifies BigQuery connectivity.
func (s *BigQuerySource) TestConnection(ctx context.Context) error {
	q := s.client.Query("SELECT 1")
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job wait: %w", err)
	}
	return status.Err()
}

type bqRecipeRow struct {
	ID          int64                `bigquery:"id"`
	Name        bigquery.NullString  `bigquery:"name"`
	Category    string               `bigquery:"category"`
	FSA         bigquery.NullFloat64 `bigquery:"fsa_score"`
	WHO         bigquery.NullFloat64 `bigquery:"who_score"`
	Ingredients []string             `bigquery:"ingredients"`
	Tags        []string             `bigquery:"tags"`
}

func (r bqRecipeRow) record() recipeRecord {
	rec := recipeRecord{
		ID:          r.ID,
		Name:        r.Name.StringVal,
		Category:    r.Category,
		Ingredients: r.Ingredients,
		Tags:        r.Tags,
	}
	if r.FSA.Valid {
		v := r.FSA.Float64
		rec.FSA = &v
	}
	if r.WHO.Valid {
		v := r.WHO.Float64
		rec.WHO = &v
	}
	return rec
}

type bqMealRow struct {
	MealID   int64 `bigquery:"meal_id"`
	CourseID int64 `bigquery:"course_id"`
}

type bqInteractionRow struct {
	UserID int64  `bigquery:"user_id"`
	Kind   string `bigquery:"kind"`
	ItemID int64  `bigquery:"item_id"`
}

// Load implements corpus.Provider.
func (s *BigQuerySource) Load(ctx context.Context, datasetID string) (*corpus.Corpus, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("bigquery source: empty dataset")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()

	recipeRows, err := readTable[bqRecipeRow](ctx, s, fmt.Sprintf(
		"SELECT id, name, CAST(category AS STRING) AS category, fsa_score, who_score, ingredients, tags FROM `%s.%s.%s` ORDER BY id",
		s.projectID, datasetID, RecipesTable))
	if err != nil {
		return nil, fmt.Errorf("read %s.%s: %w", datasetID, RecipesTable, err)
	}
	recs := make([]recipeRecord, 0, len(recipeRows))
	for _, r := range recipeRows {
		recs = append(recs, r.record())
	}
	c := &corpus.Corpus{}
	if c.Recipes, err = toRecipes(recs); err != nil {
		return nil, err
	}

	mealRows, err := readTable[bqMealRow](ctx, s, fmt.Sprintf(
		"SELECT meal_id, course_id FROM `%s.%s.%s` ORDER BY meal_id, position",
		s.projectID, datasetID, MealCoursesTable))
	if err = optionalTable(err, datasetID, MealCoursesTable); err != nil {
		return nil, err
	}
	meals := make([]mealRecord, 0, len(mealRows))
	for _, r := range mealRows {
		meals = append(meals, mealRecord{MealID: r.MealID, CourseID: r.CourseID})
	}
	c.Meals = groupMeals(meals)

	interRows, err := readTable[bqInteractionRow](ctx, s, fmt.Sprintf(
		"SELECT user_id, kind, item_id FROM `%s.%s.%s`",
		s.projectID, datasetID, InteractionsTable))
	if err = optionalTable(err, datasetID, InteractionsTable); err != nil {
		return nil, err
	}
	inter := make([]interactionRecord, 0, len(interRows))
	for _, r := range interRows {
		inter = append(inter, interactionRecord{UserID: r.UserID, Kind: r.Kind, ItemID: r.ItemID})
	}
	if c.Interactions, err = toInteractions(inter); err != nil {
		return nil, err
	}

	log.Info().
		Str("dataset", datasetID).
		Int("recipes", len(c.Recipes)).
		Int("meals", len(c.Meals)).
		Int("interactions", len(c.Interactions)).
		Dur("load_ms", time.Since(start)).
		Msg("corpus loaded from bigquery")
	return c, nil
}

func readTable[T any](ctx context.Context, s *BigQuerySource, sql string) ([]T, error) {
	q := s.client.Query(sql)
	if s.location != "" {
		q.Location = s.location
	}
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	var out []T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

// optionalTable treats a missing table as empty.
func optionalTable(err error, dataset, table string) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		log.Warn().Str("dataset", dataset).Str("table", table).Msg("optional corpus table missing, skipping")
		return nil
	}
	return fmt.Errorf("read %s.%s: %w", dataset, table, err)
}
