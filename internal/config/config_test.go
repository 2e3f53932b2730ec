package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Storage: StorageConfig{
			Driver: "s3",
			S3:     S3Config{Bucket: "filedex-test"},
		},
		Embedding: EmbeddingConfig{Truncation: "end"},
		Query:     QueryConfig{DefaultTopK: 10, MaxTopK: 100},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `storage.driver must be "s3" or "redis", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.S3.Bucket = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing s3 bucket")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "redis"
	cfg.Storage.Redis.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_InvalidTruncation(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Truncation = "both"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid truncation strategy")
	}
}

func TestValidate_ValidTruncations(t *testing.T) {
	for _, strategy := range []string{"end", "start", "middle"} {
		t.Run("truncation="+strategy, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Truncation = strategy

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid strategy %q: %v", strategy, err)
			}
		})
	}
}

func TestValidate_DefaultTopKAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Query.DefaultTopK = 200
	cfg.Query.MaxTopK = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_top_k above max_top_k")
	}
}

func TestValidate_MinScoreOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Query.DefaultMinScore = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min score above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.Driver != "s3" {
		t.Errorf("expected driver=s3, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "filedex:" {
		t.Errorf("expected KeyPrefix='filedex:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.S3.Region != "us-east-1" {
		t.Errorf("expected Region=us-east-1, got %q", cfg.Storage.S3.Region)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Truncation != "end" {
		t.Errorf("expected Truncation=end, got %q", cfg.Embedding.Truncation)
	}
	if cfg.Query.DefaultTopK != 10 {
		t.Errorf("expected DefaultTopK=10, got %d", cfg.Query.DefaultTopK)
	}
	if cfg.Query.MaxTopK != 100 {
		t.Errorf("expected MaxTopK=100, got %d", cfg.Query.MaxTopK)
	}
	if cfg.Validation.MaxFileSizeMB != 50 {
		t.Errorf("expected MaxFileSizeMB=50, got %d", cfg.Validation.MaxFileSizeMB)
	}
	if len(cfg.Validation.AllowedTypes) == 0 {
		t.Error("expected default allowed types")
	}
	if len(cfg.Validation.BlockedExtensions) == 0 {
		t.Error("expected default blocked extensions")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 60, WriteTimeoutSec: 60, ShutdownSec: 5},
		Storage: StorageConfig{Driver: "redis", KeyPrefix: "custom:", ReadinessTimeout: 15},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-large", Dimensions: 3072, Truncation: "middle",
		},
		Validation: ValidationConfig{MaxFileSizeMB: 5, BlockedExtensions: []string{".bin"}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 60 {
		t.Errorf("expected ReadTimeoutSec=60, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Dimensions != 3072 {
		t.Errorf("expected Dimensions=3072, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Validation.MaxFileSizeMB != 5 {
		t.Errorf("expected MaxFileSizeMB=5, got %d", cfg.Validation.MaxFileSizeMB)
	}
	if len(cfg.Validation.BlockedExtensions) != 1 {
		t.Errorf("expected custom blocklist preserved, got %v", cfg.Validation.BlockedExtensions)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FILEDEX_TEST_BUCKET", "real-bucket")

	in := []byte("bucket: ${FILEDEX_TEST_BUCKET}\nregion: ${FILEDEX_TEST_REGION:-eu-west-1}\nkey: ${FILEDEX_TEST_UNSET}\n")
	out := string(expandEnvVars(in))

	if !strings.Contains(out, "bucket: real-bucket") {
		t.Errorf("expected set variable expanded, got %q", out)
	}
	if !strings.Contains(out, "region: eu-west-1") {
		t.Errorf("expected default applied for unset variable, got %q", out)
	}
	if !strings.Contains(out, "key: \n") {
		t.Errorf("expected unset variable without default to expand empty, got %q", out)
	}
}
