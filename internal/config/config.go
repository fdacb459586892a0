// Package config provides environment-driven configuration for the gateway.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	MetricsPort string
	ListenHost  string
	CORSOrigins []string

	OllamaURL         string
	OllamaAllowRemote bool
	EmbeddingModel    string
	EmbeddingDim      int

	LLMIntentURL    string
	LLMIntentModel  string
	LLMIntentMargin float64
	LLMIntentEnable bool

	LogLevel string

	EncryptionProvider string
	EncryptionKey      Secret
	VaultAddr          string
	VaultToken         Secret

	EmbedWorkers int

	// Evolution Tracker phase-advancement thresholds (spec §4.5).
	PhaseRelationalToTransition float64
	PhaseTransitionToSemantic   float64
	PhaseSemanticCeiling        float64
	EvolutionWindowSize         int

	// Quota Gate defaults (spec §4.6), overridable per tenant in tenant_quotas.
	DefaultQueriesPerMinute  int
	DefaultAPICallsPerSecond int
	DefaultMonthlyQueryLimit int64

	// Bidirectional Synchronizer tuning (spec §4.4).
	SyncInterval  time.Duration
	SyncBatchSize int

	// Deadlines (spec §5).
	ExecuteDeadline       time.Duration
	SemanticSearchDeadline time.Duration
	SyncCommitDeadline    time.Duration
	LLMIntentDeadline     time.Duration

	CacheSize int
	CacheTTL  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        Secret(envOrDefault("DATABASE_URL", "")),
		Port:               envOrDefault("PORT", "3030"),
		MetricsPort:        envOrDefault("METRICS_PORT", "9090"),
		ListenHost:         envOrDefault("LISTEN_HOST", "127.0.0.1"),
		OllamaURL:          envOrDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaAllowRemote:  envOrDefault("OLLAMA_ALLOW_REMOTE", "false") == "true",
		EmbeddingModel:     envOrDefault("EMBEDDING_MODEL", "qwen3-embedding:0.6b"),
		LLMIntentURL:       envOrDefault("LLM_INTENT_URL", "http://localhost:11434"),
		LLMIntentModel:     envOrDefault("LLM_INTENT_MODEL", "qwen3:4b"),
		LLMIntentEnable:    envOrDefault("LLM_INTENT_ENABLE", "false") == "true",
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		EncryptionProvider: envOrDefault("ENCRYPTION_PROVIDER", "static"),
		EncryptionKey:      Secret(envOrDefault("ENCRYPTION_KEY", "")),
		VaultAddr:          envOrDefault("VAULT_ADDR", "http://127.0.0.1:8200"),
		VaultToken:         Secret(envOrDefault("VAULT_TOKEN", "")),
	}

	var err error

	if cfg.EmbedWorkers, err = intOrDefault("EMBED_WORKERS", 4, 1, 16); err != nil {
		return nil, err
	}

	if cfg.EmbeddingDim, err = intOrDefault("EMBEDDING_DIM", 384, 1, 8192); err != nil {
		return nil, err
	}

	if cfg.LLMIntentMargin, err = floatOrDefault("LLM_INTENT_MARGIN", 0.15, 0, 1); err != nil {
		return nil, err
	}

	if cfg.PhaseRelationalToTransition, err = floatOrDefault("PHASE_RELATIONAL_TO_TRANSITION", 0.20, 0, 1); err != nil {
		return nil, err
	}

	if cfg.PhaseTransitionToSemantic, err = floatOrDefault("PHASE_TRANSITION_TO_SEMANTIC", 0.50, 0, 1); err != nil {
		return nil, err
	}

	if cfg.PhaseSemanticCeiling, err = floatOrDefault("PHASE_SEMANTIC_CEILING", 0.80, 0, 1); err != nil {
		return nil, err
	}

	if cfg.EvolutionWindowSize, err = intOrDefault("EVOLUTION_WINDOW_SIZE", 1000, 10, 100000); err != nil {
		return nil, err
	}

	if cfg.DefaultQueriesPerMinute, err = intOrDefault("DEFAULT_QUERIES_PER_MINUTE", 600, 1, 1000000); err != nil {
		return nil, err
	}

	if cfg.DefaultAPICallsPerSecond, err = intOrDefault("DEFAULT_API_CALLS_PER_SECOND", 20, 1, 100000); err != nil {
		return nil, err
	}

	monthly, err := strconv.ParseInt(envOrDefault("DEFAULT_MONTHLY_QUERY_LIMIT", "1000000"), 10, 64)
	if err != nil || monthly < 1 {
		return nil, fmt.Errorf("DEFAULT_MONTHLY_QUERY_LIMIT must be a positive integer")
	}
	cfg.DefaultMonthlyQueryLimit = monthly

	syncIntervalSec, err := intOrDefault("SYNC_INTERVAL_SECONDS", 60, 1, 86400)
	if err != nil {
		return nil, err
	}
	cfg.SyncInterval = time.Duration(syncIntervalSec) * time.Second

	if cfg.SyncBatchSize, err = intOrDefault("SYNC_BATCH_SIZE", 500, 1, 10000); err != nil {
		return nil, err
	}

	if cfg.CacheSize, err = intOrDefault("CACHE_SIZE", 10000, 1, 1000000); err != nil {
		return nil, err
	}

	cacheTTLSec, err := intOrDefault("CACHE_TTL_SECONDS", 30, 0, 86400)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(cacheTTLSec) * time.Second

	cfg.ExecuteDeadline = 5 * time.Second
	cfg.SemanticSearchDeadline = 2 * time.Second
	cfg.SyncCommitDeadline = 10 * time.Second
	cfg.LLMIntentDeadline = 300 * time.Millisecond

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func intOrDefault(key string, fallback, min, max int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, min, max)
	}

	return v, nil
}

func floatOrDefault(key string, fallback, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(envOrDefault(key, strconv.FormatFloat(fallback, 'f', -1, 64)), 64)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be a number between %g and %g", key, min, max)
	}

	return v, nil
}
