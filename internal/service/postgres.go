package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mealwise/mealwise/internal/corpus"
	"github.com/rs/zerolog/log"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PostgresSource loads a corpus from the recipes, meal_courses and
// user_interactions tables of a Postgres schema.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects a pool to dsn.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() { s.pool.Close() }

// TestConnection pings the database.
func (s *PostgresSource) TestConnection(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type pgRecipeRow struct {
	ID          int64    `db:"id"`
	Name        *string  `db:"name"`
	Category    string   `db:"category"`
	FSA         *float64 `db:"fsa_score"`
	WHO         *float64 `db:"who_score"`
	Ingredients []string `db:"ingredients"`
	Tags        []string `db:"tags"`
}

type pgMealRow struct {
	MealID   int64 `db:"meal_id"`
	CourseID int64 `db:"course_id"`
}

type pgInteractionRow struct {
	UserID int64  `db:"user_id"`
	Kind   string `db:"kind"`
	ItemID int64  `db:"item_id"`
}

// Load implements corpus.Provider. schema may be empty for the search path.
func (s *PostgresSource) Load(ctx context.Context, schema string) (*corpus.Corpus, error) {
	table := func(name string) string {
		if schema == "" {
			return pgx.Identifier{name}.Sanitize()
		}
		return pgx.Identifier{schema, name}.Sanitize()
	}

	recipeRows, err := query[pgRecipeRow](ctx, s.pool,
		"SELECT id, name, category::text AS category, fsa_score, who_score, "+
			"COALESCE(ingredients, '{}') AS ingredients, COALESCE(tags, '{}') AS tags FROM "+table(RecipesTable)+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", RecipesTable, err)
	}
	recs := make([]recipeRecord, 0, len(recipeRows))
	for _, r := range recipeRows {
		rec := recipeRecord{ID: r.ID, Category: r.Category, FSA: r.FSA, WHO: r.WHO, Ingredients: r.Ingredients, Tags: r.Tags}
		if r.Name != nil {
			rec.Name = *r.Name
		}
		recs = append(recs, rec)
	}
	c := &corpus.Corpus{}
	if c.Recipes, err = toRecipes(recs); err != nil {
		return nil, err
	}

	mealRows, err := query[pgMealRow](ctx, s.pool,
		"SELECT meal_id, course_id FROM "+table(MealCoursesTable)+" ORDER BY meal_id, position")
	if err = optionalRelation(err, MealCoursesTable); err != nil {
		return nil, err
	}
	meals := make([]mealRecord, 0, len(mealRows))
	for _, r := range mealRows {
		meals = append(meals, mealRecord{MealID: r.MealID, CourseID: r.CourseID})
	}
	c.Meals = groupMeals(meals)

	interRows, err := query[pgInteractionRow](ctx, s.pool,
		"SELECT user_id, kind, item_id FROM "+table(InteractionsTable))
	if err = optionalRelation(err, InteractionsTable); err != nil {
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
		Str("schema", schema).
		Int("recipes", len(c.Recipes)).
		Int("meals", len(c.Meals)).
		Int("interactions", len(c.Interactions)).
		Msg("corpus loaded from postgres")
	return c, nil
}

func query[T any](ctx context.Context, pool *pgxpool.Pool, sql string) ([]T, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func optionalRelation(err error, table string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		log.Warn().Str("table", table).Msg("optional corpus table missing, skipping")
		return nil
	}
	return fmt.Errorf("read %s: %w", table, err)
}
