package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MEALWISE_PORT.
const EnvPrefix = "MEALWISE"

type Config struct {
	// Server
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	APIPrefix   string `mapstructure:"api_prefix"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json | console

	// CORS
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Auth
	APIKeyHeader string   `mapstructure:"api_key_header"`
	APIKeys      []string `mapstructure:"api_keys"`
	EnableAuth   bool     `mapstructure:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`

	// Corpus
	CorpusSource   string        `mapstructure:"corpus_source"` // kind://location
	CorpusCacheTTL time.Duration `mapstructure:"corpus_cache_ttl"`
	// MealRecDefaults fills missing FSA/WHO scores of directory corpora
	// with the dataset's neutral values.
	MealRecDefaults bool `mapstructure:"mealrec_defaults"`

	// BigQuery
	GCPProjectID                 string        `mapstructure:"gcp_project_id"`
	GoogleApplicationCredentials string        `mapstructure:"google_application_credentials"`
	BigQueryLocation             string        `mapstructure:"bigquery_location"`
	BigQueryTimeout              time.Duration `mapstructure:"bigquery_timeout"`

	// Postgres
	DatabaseURL string `mapstructure:"database_url"`

	// Elasticsearch
	ElasticsearchEnabled     bool     `mapstructure:"elasticsearch_enabled"`
	ElasticsearchHost        string   `mapstructure:"elasticsearch_host"`
	ElasticsearchPort        int      `mapstructure:"elasticsearch_port"`
	ElasticsearchScheme      string   `mapstructure:"elasticsearch_scheme"`
	ElasticsearchUser        string   `mapstructure:"elasticsearch_user"`
	ElasticsearchPassword    string   `mapstructure:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool     `mapstructure:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int      `mapstructure:"elasticsearch_max_retries"`
	ElasticsearchMaxDocs     int      `mapstructure:"elasticsearch_max_docs"`
	ESAllowedPatterns        []string `mapstructure:"es_allowed_patterns"`

	// Security
	EnablePIIDetection bool     `mapstructure:"enable_pii_detection"`
	PIIKeywords        []string `mapstructure:"pii_keywords"`
	EnableAuditLogging bool     `mapstructure:"enable_audit_logging"`
	MaxTokensPerChat   int64    `mapstructure:"max_tokens_per_chat"`
	InputCostPerMTok   float64  `mapstructure:"input_cost_per_mtok"`
	OutputCostPerMTok  float64  `mapstructure:"output_cost_per_mtok"`
	LogPreviewChars    int      `mapstructure:"log_preview_chars"`

	// AI / LLM
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL string `mapstructure:"anthropic_base_url"` // override for a proxy
	Model            string `mapstructure:"model"`
	MaxTokens        int    `mapstructure:"max_tokens"`
	AgentTimeout     int    `mapstructure:"agent_timeout"` // seconds

	// Agent loop
	MaxIterations int           `mapstructure:"max_iterations"`
	ModelTimeout  time.Duration `mapstructure:"model_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`
}

// envAliases are the unprefixed variables other tools already set. The
// MEALWISE_ form wins when both are present.
var envAliases = map[string]string{
	"anthropic_api_key":              "ANTHROPIC_API_KEY",
	"anthropic_base_url":             "ANTHROPIC_BASE_URL",
	"gcp_project_id":                 "GCP_PROJECT_ID",
	"google_application_credentials": "GOOGLE_APPLICATION_CREDENTIALS",
	"database_url":                   "DATABASE_URL",
	"elasticsearch_enabled":          "ELASTICSEARCH_ENABLED",
	"elasticsearch_host":             "ELASTICSEARCH_HOST",
	"elasticsearch_port":             "ELASTICSEARCH_PORT",
	"elasticsearch_scheme":           "ELASTICSEARCH_SCHEME",
	"elasticsearch_user":             "ELASTICSEARCH_USER",
	"elasticsearch_password":         "ELASTICSEARCH_PASSWORD",
	"rate_limit_per_minute":          "RATE_LIMIT_PER_MINUTE",
	"enable_auth":                    "ENABLE_AUTH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("environment", DefaultEnvironment)
	v.SetDefault("api_prefix", DefaultAPIPrefix)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("cors_origins", DefaultCORSOrigins)
	v.SetDefault("api_key_header", DefaultAPIKeyHeader)
	v.SetDefault("api_keys", []string{})
	v.SetDefault("enable_auth", true)
	v.SetDefault("rate_limit_per_minute", DefaultRateLimitPerMinute)
	v.SetDefault("corpus_source", DefaultCorpusSource)
	v.SetDefault("corpus_cache_ttl", DefaultCorpusCacheTTL)
	v.SetDefault("mealrec_defaults", false)
	v.SetDefault("gcp_project_id", "")
	v.SetDefault("google_application_credentials", "")
	v.SetDefault("bigquery_location", DefaultBigQueryLocation)
	v.SetDefault("bigquery_timeout", DefaultBigQueryTimeout)
	v.SetDefault("database_url", "")
	v.SetDefault("elasticsearch_enabled", false)
	v.SetDefault("elasticsearch_host", "localhost")
	v.SetDefault("elasticsearch_port", DefaultElasticsearchPort)
	v.SetDefault("elasticsearch_scheme", DefaultElasticsearchScheme)
	v.SetDefault("elasticsearch_user", "")
	v.SetDefault("elasticsearch_password", "")
	v.SetDefault("elasticsearch_verify_certs", true)
	v.SetDefault("elasticsearch_max_retries", DefaultElasticsearchMaxRetries)
	v.SetDefault("elasticsearch_max_docs", DefaultElasticsearchMaxDocs)
	v.SetDefault("es_allowed_patterns", DefaultESAllowedPatterns)
	v.SetDefault("enable_pii_detection", true)
	v.SetDefault("pii_keywords", DefaultPIIKeywords)
	v.SetDefault("enable_audit_logging", true)
	v.SetDefault("max_tokens_per_chat", DefaultMaxTokensPerChat)
	v.SetDefault("input_cost_per_mtok", 0.0)
	v.SetDefault("output_cost_per_mtok", 0.0)
	v.SetDefault("log_preview_chars", DefaultLogPreviewChars)
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_base_url", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("agent_timeout", DefaultAgentTimeout)
	v.SetDefault("max_iterations", DefaultMaxIterations)
	v.SetDefault("model_timeout", DefaultModelTimeout)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("retry_backoff", DefaultRetryBackoff)
	v.SetDefault("max_backoff", DefaultMaxBackoff)
}

// Load reads defaults, then the optional config file named by
// MEALWISE_CONFIG (any format viper reads), then environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), alias); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.BindEnv("config_file", EnvPrefix+"_CONFIG"); err != nil {
		return nil, fmt.Errorf("bind config_file: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.APIKeys = compact(cfg.APIKeys)
	cfg.CORSOrigins = compact(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log_format %q (use json or console)", c.LogFormat)
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api_prefix %q must start with /", c.APIPrefix)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("agent_timeout must be positive, got %d", c.AgentTimeout)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.CorpusCacheTTL < 0 {
		return fmt.Errorf("corpus_cache_ttl must not be negative, got %s", c.CorpusCacheTTL)
	}
	return nil
}

// compact drops blank entries left by trailing commas in env lists.
func compact(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
