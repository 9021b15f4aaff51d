package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for vibe-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (API keys, passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Dataset   DatasetConfig   `yaml:"dataset"`
}

// ProvidersConfig holds model provider endpoints and the priority order
// used for capability fallback.
type ProvidersConfig struct {
	// PriorityStr is a comma-separated list of provider names tried in
	// order, e.g. "openai,anthropic".
	PriorityStr string `yaml:"priority" env:"PROVIDER_PRIORITY" env-default:"openai,anthropic"`

	// Priority is the parsed list from PriorityStr (not from config file).
	Priority []string `yaml:"-"`

	// MaxConcurrent bounds in-flight model calls across all runs.
	MaxConcurrent int64 `yaml:"max_concurrent" env:"PROVIDER_MAX_CONCURRENT" env-default:"8"`

	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// OpenAIConfig configures the OpenAI-compatible provider. The endpoint
// may point at any compatible server (vLLM, Ollama, GitHub Models).
type OpenAIConfig struct {
	Endpoint  string `yaml:"endpoint" env:"OPENAI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model     string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	APIKey    string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	MaxTokens int    `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS" env-default:"4096"`
}

// IsAvailable returns true if the OpenAI provider is configured.
func (c *OpenAIConfig) IsAvailable() bool {
	return c.APIKey != "" || !strings.Contains(c.Endpoint, "api.openai.com")
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	Model     string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-5-20250929"`
	APIKey    string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	MaxTokens int    `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"4096"`
}

// IsAvailable returns true if the Anthropic provider is configured.
func (c *AnthropicConfig) IsAvailable() bool {
	return c.APIKey != ""
}

// PipelineConfig holds per-stage sampling temperatures, retry budgets,
// and timeouts. None of these are hardcoded inside stage logic.
type PipelineConfig struct {
	PlanningTemperature      float64 `yaml:"planning_temperature" env:"PLANNING_TEMPERATURE" env-default:"0.5"`
	GenerationTemperature    float64 `yaml:"generation_temperature" env:"GENERATION_TEMPERATURE" env-default:"0.1"`
	InsightTemperature       float64 `yaml:"insight_temperature" env:"INSIGHT_TEMPERATURE" env-default:"0.7"`
	VisualizationTemperature float64 `yaml:"visualization_temperature" env:"VISUALIZATION_TEMPERATURE" env-default:"0.2"`

	// MaxSQLAttempts caps the generate/correct loop for the final query.
	MaxSQLAttempts int `yaml:"max_sql_attempts" env:"MAX_SQL_ATTEMPTS" env-default:"3"`

	// ProbeConcurrency bounds concurrent exploratory probes within a run.
	ProbeConcurrency int `yaml:"probe_concurrency" env:"PROBE_CONCURRENCY" env-default:"2"`

	// ModelCallTimeout applies to every individual model call.
	ModelCallTimeout time.Duration `yaml:"model_call_timeout" env:"MODEL_CALL_TIMEOUT" env-default:"90s"`
}

// DatasetConfig holds execution gateway limits.
type DatasetConfig struct {
	// ResultRowLimit caps the final query's result set.
	ResultRowLimit int `yaml:"result_row_limit" env:"RESULT_ROW_LIMIT" env-default:"1000"`

	// ProbeRowLimit caps each exploratory probe's result set.
	ProbeRowLimit int `yaml:"probe_row_limit" env:"PROBE_ROW_LIMIT" env-default:"50"`

	// QueryTimeout applies to the final query's execution.
	QueryTimeout time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT" env-default:"30s"`

	// ProbeTimeout applies to each exploratory probe independently.
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT" env-default:"10s"`

	// PostgresURL connects the gateway to an external store instead of
	// the in-process engine when set.
	PostgresURL string `yaml:"-" env:"DATASET_POSTGRES_URL"` // May embed credentials - not in YAML
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml does not exist, configuration comes from
// environment variables alone.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Providers.Priority = parsePriority(c.Providers.PriorityStr)
	return nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.Pipeline.MaxSQLAttempts < 1 {
		return fmt.Errorf("max_sql_attempts must be at least 1, got %d", c.Pipeline.MaxSQLAttempts)
	}
	if c.Pipeline.ProbeConcurrency < 1 {
		return fmt.Errorf("probe_concurrency must be at least 1, got %d", c.Pipeline.ProbeConcurrency)
	}
	if len(c.Providers.Priority) == 0 {
		return fmt.Errorf("provider priority list is empty")
	}
	for _, name := range c.Providers.Priority {
		switch name {
		case "openai", "anthropic":
		default:
			return fmt.Errorf("unknown provider %q in priority list", name)
		}
	}
	return nil
}

// parsePriority parses the comma-separated provider priority list.
func parsePriority(value string) []string {
	var names []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
