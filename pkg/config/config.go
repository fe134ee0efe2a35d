package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for insights-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory containing SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model endpoints (label synthesis + embeddings)
	AI AIConfig `yaml:"ai"`

	// Analytics pipeline tunables
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"insights"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"insights_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AIConfig holds endpoints for the label-synthesis and embedding models.
type AIConfig struct {
	// Provider selects the label-synthesis backend: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// LLMBaseURL is the base URL of the chat-completion endpoint.
	// For anthropic this may be left empty to use the public API.
	LLMBaseURL string `yaml:"llm_base_url" env:"AI_LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	LLMModel   string `yaml:"llm_model" env:"AI_LLM_MODEL" env-default:"gpt-4o-mini"`
	LLMAPIKey  string `yaml:"-" env:"AI_LLM_API_KEY"` // Secret - not in YAML

	// Embedding endpoint used by the query-logging path. Always
	// OpenAI-compatible regardless of Provider.
	EmbeddingBaseURL string `yaml:"embedding_base_url" env:"AI_EMBEDDING_BASE_URL" env-default:"https://api.openai.com/v1"`
	EmbeddingModel   string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	EmbeddingAPIKey  string `yaml:"-" env:"AI_EMBEDDING_API_KEY"` // Secret - not in YAML
}

// AnalyticsConfig holds tunables for the report build pipeline.
// Defaults mirror the dashboard's expectations but every value can be
// overridden per deployment.
type AnalyticsConfig struct {
	// ClusterCount is the configured number of topic clusters. The
	// effective count is clamped to the number of available vectors.
	ClusterCount int `yaml:"cluster_count" env:"ANALYTICS_CLUSTER_COUNT" env-default:"5"`

	// SampleQueries is the maximum number of example queries stored per
	// cluster in the report.
	SampleQueries int `yaml:"sample_queries" env:"ANALYTICS_SAMPLE_QUERIES" env-default:"5"`

	// MaxLabelTexts caps how many member queries are sent to the label
	// model per cluster.
	MaxLabelTexts int `yaml:"max_label_texts" env:"ANALYTICS_MAX_LABEL_TEXTS" env-default:"10"`

	// LabelWorkers bounds concurrent label-synthesis calls during a build.
	LabelWorkers int `yaml:"label_workers" env:"ANALYTICS_LABEL_WORKERS" env-default:"4"`

	// LabelTimeoutSeconds bounds a single label-synthesis call.
	LabelTimeoutSeconds int `yaml:"label_timeout_seconds" env:"ANALYTICS_LABEL_TIMEOUT_SECONDS" env-default:"15"`

	// StoreTimeoutSeconds bounds each event-store and report-store call.
	StoreTimeoutSeconds int `yaml:"store_timeout_seconds" env:"ANALYTICS_STORE_TIMEOUT_SECONDS" env-default:"10"`
}

// LabelTimeout returns the label-synthesis timeout as a duration.
func (c *AnalyticsConfig) LabelTimeout() time.Duration {
	return time.Duration(c.LabelTimeoutSeconds) * time.Second
}

// StoreTimeout returns the store-call timeout as a duration.
func (c *AnalyticsConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml does not exist, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown ai provider %q (expected openai or anthropic)", c.AI.Provider)
	}

	if c.Analytics.ClusterCount < 1 {
		return fmt.Errorf("analytics cluster_count must be at least 1, got %d", c.Analytics.ClusterCount)
	}
	if c.Analytics.SampleQueries < 1 {
		return fmt.Errorf("analytics sample_queries must be at least 1, got %d", c.Analytics.SampleQueries)
	}
	if c.Analytics.MaxLabelTexts < 1 {
		return fmt.Errorf("analytics max_label_texts must be at least 1, got %d", c.Analytics.MaxLabelTexts)
	}
	if c.Analytics.LabelWorkers < 1 {
		return fmt.Errorf("analytics label_workers must be at least 1, got %d", c.Analytics.LabelWorkers)
	}
	if c.Analytics.LabelTimeoutSeconds < 1 || c.Analytics.StoreTimeoutSeconds < 1 {
		return fmt.Errorf("analytics timeouts must be at least 1 second")
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string. Localhost hosts
// are rewritten when running inside a container so a default config still
// reaches a database on the host machine.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
