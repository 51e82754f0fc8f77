package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mealwise/mealwise/internal/agent"
	"github.com/mealwise/mealwise/internal/config"
	"github.com/mealwise/mealwise/internal/corpus"
	"github.com/mealwise/mealwise/internal/handler"
	"github.com/mealwise/mealwise/internal/llm"
	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/mealwise/mealwise/internal/security"
	"github.com/mealwise/mealwise/internal/service"
	"github.com/rs/zerolog/log"
)

// Source kinds accepted in corpus sources such as "es://recipes".
const (
	KindDir           = "dir"
	KindElasticsearch = "es"
	KindBigQuery      = "bq"
	KindPostgres      = "pg"
)

// Services holds the long-lived components shared by the HTTP server and the CLI.
type Services struct {
	Meals  *agent.MealHandler
	Cache  *corpus.Cache
	Checks map[string]handler.HealthChecker
	// ChatEnabled is false when no language model is configured.
	ChatEnabled bool

	closers []func()
}

// NewServices connects every data source the config names. A source that
// fails to connect is logged and left out; the server still starts.
func NewServices(ctx context.Context, cfg *config.Config, client llm.Client) (*Services, error) {
	var defaults map[recipe.Scale]float64
	if cfg.MealRecDefaults {
		defaults = corpus.MealRecDefaults
	}
	sources := corpus.Sources{KindDir: corpus.DirProvider{DefaultScores: defaults}}
	checks := map[string]handler.HealthChecker{
		"elasticsearch": nil,
		"bigquery":      nil,
		"postgres":      nil,
	}
	var closers []func()

	// ─── Data sources ───────────────────────────────────────────────────────────
	if cfg.ElasticsearchEnabled {
		es, err := service.NewElasticsearchSource(service.ElasticsearchConfig{
			Scheme:          cfg.ElasticsearchScheme,
			Host:            cfg.ElasticsearchHost,
			Port:            cfg.ElasticsearchPort,
			User:            cfg.ElasticsearchUser,
			Password:        cfg.ElasticsearchPassword,
			VerifyCerts:     cfg.ElasticsearchVerifyCerts,
			MaxRetries:      cfg.ElasticsearchMaxRetries,
			MaxDocs:         cfg.ElasticsearchMaxDocs,
			AllowedPatterns: cfg.ESAllowedPatterns,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Elasticsearch source unavailable")
		} else {
			sources[KindElasticsearch] = es
			checks["elasticsearch"] = es
		}
	}

	if cfg.GCPProjectID != "" {
		bq, err := service.NewBigQuerySource(ctx, cfg.GCPProjectID, cfg.GoogleApplicationCredentials, cfg.BigQueryLocation, cfg.BigQueryTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("BigQuery source unavailable")
		} else {
			sources[KindBigQuery] = bq
			checks["bigquery"] = bq
			closers = append(closers, func() {
				if err := bq.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing BigQuery client")
				}
			})
		}
	}

	if cfg.DatabaseURL != "" {
		pg, err := service.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("Postgres source unavailable")
		} else {
			sources[KindPostgres] = pg
			checks["postgres"] = pg
			closers = append(closers, pg.Close)
		}
	}

	// ─── Language model ─────────────────────────────────────────────────────────
	if client == nil && cfg.AnthropicAPIKey != "" {
		client = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL, cfg.MaxTokens)
	}
	if client == nil {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - chat disabled")
	}

	s := NewServicesWithProvider(cfg, client, sources)
	for name, c := range checks {
		s.Checks[name] = c
	}
	s.closers = closers

	log.Info().
		Strs("source_kinds", sources.Kinds()).
		Str("default_source", cfg.CorpusSource).
		Bool("chat_enabled", s.ChatEnabled).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}
	return s, nil
}

// NewServicesWithProvider wires the security stack, the corpus cache and the
// meal handler around an already built provider. client may be nil.
func NewServicesWithProvider(cfg *config.Config, client llm.Client, provider corpus.Provider) *Services {
	cache := corpus.NewCache(provider, cfg.CorpusCacheTTL)

	piiKeywords := cfg.PIIKeywords
	if !cfg.EnablePIIDetection {
		piiKeywords = nil
	}

	meals := agent.NewMealHandler(
		client,
		cfg.Model,
		agent.Options{
			MaxIterations:  cfg.MaxIterations,
			ModelTimeout:   cfg.ModelTimeout,
			MaxRetries:     cfg.MaxRetries,
			RetryBackoff:   cfg.RetryBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			RequestTimeout: time.Duration(cfg.AgentTimeout) * time.Second,
		},
		cache,
		cfg.CorpusSource,
		service.NewIntentRouter(),
		security.NewPIIDetector(piiKeywords),
		security.NewPromptValidator(),
		security.NewCostTracker(cfg.MaxTokensPerChat, cfg.InputCostPerMTok, cfg.OutputCostPerMTok),
		security.NewDataMasker(cfg.LogPreviewChars),
		security.NewAuditLogger(cfg.EnableAuditLogging),
	)

	return &Services{
		Meals: meals,
		Cache: cache,
		Checks: map[string]handler.HealthChecker{
			"corpus": handler.CheckFunc(func(ctx context.Context) error {
				_, err := meals.Index(ctx, nil)
				return err
			}),
		},
		ChatEnabled: client != nil,
	}
}

// Close releases data source connections.
func (s *Services) Close() {
	for _, c := range s.closers {
		c()
	}
}

// RequireChat reports an error when no language model is configured.
func (s *Services) RequireChat() error {
	if !s.ChatEnabled {
		return fmt.Errorf("chat needs a language model: set ANTHROPIC_API_KEY")
	}
	return nil
}
