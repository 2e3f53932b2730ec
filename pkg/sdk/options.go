package filedex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "redis" or "s3"
	keyPrefix string

	redisAddrs    []string
	redisPassword string

	s3Bucket    string
	s3Region    string
	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string

	embedder Embedder

	vectorDimensions int
	embeddingModel   string
	maxTextChars     int
	truncation       string

	maxFileSize       int64
	maxBatchSize      int64
	allowedTypes      []string
	blockedExtensions []string

	defaultTopK int
	maxTopK     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to store records in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithS3 configures the client to store records in an S3 bucket using the
// default AWS credential chain.
func WithS3(bucket, region string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "s3"
		c.s3Bucket = bucket
		c.s3Region = region
	})
}

// WithS3Endpoint points the S3 driver at an S3-compatible server (minio,
// localstack) with static credentials.
func WithS3Endpoint(endpoint, accessKey, secretKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.s3Endpoint = endpoint
		c.s3AccessKey = accessKey
		c.s3SecretKey = secretKey
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "filedex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the expected vector dimension. Records whose
// embedding does not match are rejected at intake. Default: 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithEmbeddingModel records the model name in uploaded file metadata.
func WithEmbeddingModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
	})
}

// WithTextLimits bounds extracted text before embedding. Strategy is one
// of "end", "start", "middle". Defaults: 8000 chars, "end".
func WithTextLimits(maxChars int, strategy string) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTextChars = maxChars
		c.truncation = strategy
	})
}

// WithFileSizeLimits sets per-file and per-batch byte caps.
// Defaults: 50 MiB per file, 200 MiB per batch.
func WithFileSizeLimits(maxFileSize, maxBatchSize int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFileSize = maxFileSize
		c.maxBatchSize = maxBatchSize
	})
}

// WithAllowedTypes replaces the MIME allowlist. Entries support the
// "type/*" wildcard form.
func WithAllowedTypes(types ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.allowedTypes = types
	})
}

// WithBlockedExtensions replaces the extension blocklist. Extensions
// include the leading dot and match case-insensitively.
func WithBlockedExtensions(exts ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.blockedExtensions = exts
	})
}

// WithQueryLimits sets the default and maximum top-K for similarity
// queries. Defaults: 10 and 100.
func WithQueryLimits(defaultTopK, maxTopK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
