package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/config"
	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	logpkg "github.com/meridia-cloud/filedex/internal/logger"
	"github.com/meridia-cloud/filedex/internal/metrics"
	"github.com/meridia-cloud/filedex/internal/repository/embcache"
	"github.com/meridia-cloud/filedex/internal/repository/records"
	"github.com/meridia-cloud/filedex/internal/storage"
	storageRedis "github.com/meridia-cloud/filedex/internal/storage/redis"
	storageS3 "github.com/meridia-cloud/filedex/internal/storage/s3"
	chiTransport "github.com/meridia-cloud/filedex/internal/transport/chi"
	openaiEmb "github.com/meridia-cloud/filedex/internal/transport/openai"
	embeddinguc "github.com/meridia-cloud/filedex/internal/usecase/embedding"
	fileuc "github.com/meridia-cloud/filedex/internal/usecase/file"
	healthuc "github.com/meridia-cloud/filedex/internal/usecase/health"
	queryuc "github.com/meridia-cloud/filedex/internal/usecase/query"
	"github.com/meridia-cloud/filedex/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting filedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx := context.Background()

	// Create storage backend based on driver
	var store storage.Store
	switch cfg.Storage.Driver {
	case "s3":
		store, err = storageS3.NewStore(ctx, storageS3.Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
		})
	case "redis":
		store, err = storageRedis.NewStore(storageRedis.Config{
			Addrs:    cfg.Storage.Redis.Addrs,
			Username: cfg.Storage.Redis.Username,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
	default:
		logger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create storage backend", zap.Error(err))
	}
	defer store.Close()

	// Wait for storage to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Storage backend not ready", zap.Error(err))
	}
	logger.Info("Connected to storage backend")

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := embeddinguc.NewGenerator(
		embedder, cfg.Embedding.MaxTextChars, cfg.Embedding.Truncation, logger,
	)

	repo := records.New(store, cfg.Storage.KeyPrefix)
	engine := queryuc.New()

	policy := intake.Policy{
		MaxFileSize:       cfg.Validation.MaxFileSizeMB << 20,
		MaxBatchSize:      cfg.Validation.MaxBatchSizeMB << 20,
		AllowedTypes:      cfg.Validation.AllowedTypes,
		BlockedExtensions: cfg.Validation.BlockedExtensions,
	}

	fileSvc := fileuc.New(
		repo, generator, engine,
		policy, cfg.Embedding.Dimensions, cfg.Embedding.Model,
		fileuc.QueryLimits{
			DefaultTopK:     cfg.Query.DefaultTopK,
			MaxTopK:         cfg.Query.MaxTopK,
			DefaultMinScore: cfg.Query.DefaultMinScore,
		},
		logger,
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(fileSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented
func buildEmbedder(cfg config.Config, store storage.Store, logger *zap.Logger) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if cfg.Embedding.CacheEnabled {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (request logging)
	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
