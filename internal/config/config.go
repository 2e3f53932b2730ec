// Package config loads YAML configuration by environment name with
// ${VAR} and ${VAR:-default} environment variable expansion.
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

// Config holds the filedex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Query      QueryConfig      `yaml:"query"`
	Validation ValidationConfig `yaml:"validation"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// StorageConfig holds storage backend settings.
type StorageConfig struct {
	Driver           string      `yaml:"driver"` // s3, redis (default: s3)
	KeyPrefix        string      `yaml:"key_prefix"`
	ReadinessTimeout int         `yaml:"readiness_timeout_sec"`
	S3               S3Config    `yaml:"s3"`
	Redis            RedisConfig `yaml:"redis"`
}

// S3Config holds S3 (or S3-compatible) connection settings.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // empty = AWS, set for minio/localstack
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// EmbeddingConfig holds embedding provider and preprocessing settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	MaxTextChars int    `yaml:"max_text_chars"`
	Truncation   string `yaml:"truncation"` // end, start, middle
	CacheEnabled bool   `yaml:"cache_enabled"`
}

// QueryConfig holds similarity query limits.
type QueryConfig struct {
	DefaultTopK     int     `yaml:"default_top_k"`
	MaxTopK         int     `yaml:"max_top_k"`
	DefaultMinScore float64 `yaml:"default_min_score"`
}

// ValidationConfig holds the file intake policy.
type ValidationConfig struct {
	MaxFileSizeMB     int64    `yaml:"max_file_size_mb"`
	MaxBatchSizeMB    int64    `yaml:"max_batch_size_mb"`
	AllowedTypes      []string `yaml:"allowed_types"`
	BlockedExtensions []string `yaml:"blocked_extensions"`
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "s3"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "filedex:"
	}
	if c.Storage.ReadinessTimeout <= 0 {
		c.Storage.ReadinessTimeout = 10
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.MaxTextChars <= 0 {
		c.Embedding.MaxTextChars = 8000
	}
	if c.Embedding.Truncation == "" {
		c.Embedding.Truncation = "end"
	}
	if c.Query.DefaultTopK <= 0 {
		c.Query.DefaultTopK = 10
	}
	if c.Query.MaxTopK <= 0 {
		c.Query.MaxTopK = 100
	}
	if c.Validation.MaxFileSizeMB <= 0 {
		c.Validation.MaxFileSizeMB = 50
	}
	if c.Validation.MaxBatchSizeMB <= 0 {
		c.Validation.MaxBatchSizeMB = 200
	}
	if len(c.Validation.AllowedTypes) == 0 {
		c.Validation.AllowedTypes = []string{
			"text/*",
			"application/json",
			"application/pdf",
			"application/xml",
			"image/png",
			"image/jpeg",
			"image/gif",
			"image/webp",
		}
	}
	if len(c.Validation.BlockedExtensions) == 0 {
		c.Validation.BlockedExtensions = []string{
			".exe", ".bat", ".cmd", ".com", ".scr", ".dll", ".msi", ".sh", ".ps1",
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	case "redis":
		if len(c.Storage.Redis.Addrs) == 0 {
			return fmt.Errorf("storage.redis.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver must be \"s3\" or \"redis\", got %q", c.Storage.Driver)
	}
	switch c.Embedding.Truncation {
	case "end", "start", "middle":
		// ok
	default:
		return fmt.Errorf("embedding.truncation must be \"end\", \"start\", or \"middle\", got %q",
			c.Embedding.Truncation)
	}
	if c.Query.DefaultTopK > c.Query.MaxTopK {
		return fmt.Errorf("query.default_top_k (%d) must not exceed query.max_top_k (%d)",
			c.Query.DefaultTopK, c.Query.MaxTopK)
	}
	if c.Query.DefaultMinScore < 0 || c.Query.DefaultMinScore > 1 {
		return fmt.Errorf("query.default_min_score must be between 0 and 1, got %g",
			c.Query.DefaultMinScore)
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
