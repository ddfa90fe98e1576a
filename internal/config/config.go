package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the econsult API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document-store connection and pool settings.
type DatabaseConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`

	MaxPoolSize            int   `yaml:"max_pool_size"`
	MinPoolSize            int   `yaml:"min_pool_size"`
	ConnectTimeoutSec      int   `yaml:"connect_timeout_sec"`
	WriteTimeoutSec        int   `yaml:"write_timeout_sec"`
	ReadinessTimeoutSec    int   `yaml:"readiness_timeout_sec"`
	HealthCheckIntervalSec int   `yaml:"health_check_interval_sec"`
	RetryWrites            *bool `yaml:"retry_writes"`
}

// SearchConfig holds vector search settings.
type SearchConfig struct {
	Index         string `yaml:"index"`
	VectorField   string `yaml:"vector_field"`
	NumCandidates int    `yaml:"num_candidates"`
	Limit         int    `yaml:"limit"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMConfig holds the language-model provider settings.
type LLMConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	Model              string  `yaml:"model"`
	Temperature        float32 `yaml:"temperature"`
	RelevancyMaxTokens int     `yaml:"relevancy_max_tokens"`
	SummaryMaxTokens   int     `yaml:"summary_max_tokens"`
}

// PipelineConfig holds per-stage timeout budgets.
type PipelineConfig struct {
	SearchTimeoutSec    int `yaml:"search_timeout_sec"`
	RelevancyTimeoutSec int `yaml:"relevancy_timeout_sec"`
	SummaryTimeoutSec   int `yaml:"summary_timeout_sec"`
}

// StorageConfig holds key namespace settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. Required fields
// (store addrs, index name, model names, API keys) have no defaults and are
// caught by Validate instead.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Summarization can run up to its 60s budget.
		c.HTTP.WriteTimeoutSec = 150
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.MaxPoolSize <= 0 {
		c.Database.MaxPoolSize = 50
	}
	if c.Database.MinPoolSize <= 0 {
		c.Database.MinPoolSize = 5
	}
	if c.Database.ConnectTimeoutSec <= 0 {
		c.Database.ConnectTimeoutSec = 30
	}
	if c.Database.WriteTimeoutSec <= 0 {
		c.Database.WriteTimeoutSec = 10
	}
	if c.Database.ReadinessTimeoutSec <= 0 {
		c.Database.ReadinessTimeoutSec = 30
	}
	if c.Database.HealthCheckIntervalSec <= 0 {
		c.Database.HealthCheckIntervalSec = 300
	}
	if c.Database.RetryWrites == nil {
		retry := true
		c.Database.RetryWrites = &retry
	}
	if c.Search.VectorField == "" {
		c.Search.VectorField = "content_vector"
	}
	if c.Search.NumCandidates <= 0 {
		c.Search.NumCandidates = 150
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 10
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.RelevancyMaxTokens <= 0 {
		c.LLM.RelevancyMaxTokens = 1000
	}
	if c.LLM.SummaryMaxTokens <= 0 {
		c.LLM.SummaryMaxTokens = 2000
	}
	if c.Pipeline.SearchTimeoutSec <= 0 {
		c.Pipeline.SearchTimeoutSec = 30
	}
	if c.Pipeline.RelevancyTimeoutSec <= 0 {
		c.Pipeline.RelevancyTimeoutSec = 30
	}
	if c.Pipeline.SummaryTimeoutSec <= 0 {
		c.Pipeline.SummaryTimeoutSec = 60
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "econsult:"
	}
}

// Validate checks the configuration for correctness. Missing required values
// are reported here rather than silently defaulted.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.MinPoolSize > c.Database.MaxPoolSize {
		return fmt.Errorf("database.min_pool_size %d exceeds max_pool_size %d",
			c.Database.MinPoolSize, c.Database.MaxPoolSize)
	}
	if c.Search.Index == "" {
		return fmt.Errorf("search.index is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
