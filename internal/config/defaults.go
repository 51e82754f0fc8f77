package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"

	DefaultAPIKeyHeader       = "X-API-Key"
	DefaultRateLimitPerMinute = 60

	DefaultCorpusSource   = "dir://./data/MealRecPlus"
	DefaultCorpusCacheTTL = 10 * time.Minute

	DefaultBigQueryLocation = "US"
	DefaultBigQueryTimeout  = 60 * time.Second

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3
	DefaultElasticsearchMaxDocs    = 10000

	DefaultModel        = "claude-sonnet-4-6"
	DefaultMaxTokens    = 1024
	DefaultAgentTimeout = 120 // seconds, per chat request

	DefaultMaxIterations = 5
	DefaultModelTimeout  = 60 * time.Second
	DefaultMaxRetries    = 2
	DefaultRetryBackoff  = 500 * time.Millisecond
	DefaultMaxBackoff    = 4 * time.Second

	DefaultMaxTokensPerChat = 200_000
	DefaultLogPreviewChars  = 120
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultESAllowedPatterns = []string{"recipes*", "mealrec*"}

var DefaultPIIKeywords = []string{
	"password", "ssn", "social security", "credit card",
	"bank account", "secret", "private key",
	"access token", "api key", "passport",
}
