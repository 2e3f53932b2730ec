package filedex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	"github.com/meridia-cloud/filedex/internal/repository/records"
	"github.com/meridia-cloud/filedex/internal/storage"
	storageRedis "github.com/meridia-cloud/filedex/internal/storage/redis"
	storageS3 "github.com/meridia-cloud/filedex/internal/storage/s3"
	embeddinguc "github.com/meridia-cloud/filedex/internal/usecase/embedding"
	fileuc "github.com/meridia-cloud/filedex/internal/usecase/file"
	healthuc "github.com/meridia-cloud/filedex/internal/usecase/health"
	queryuc "github.com/meridia-cloud/filedex/internal/usecase/query"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type fileUseCase interface {
	Upload(ctx context.Context, file domain.FileContent) (domain.VectorRecord, error)
	UploadBatch(ctx context.Context, files []domain.FileContent) ([]fileuc.BatchItem, error)
	Query(ctx context.Context, req fileuc.QueryRequest) ([]domain.QueryResult, error)
	Get(ctx context.Context, id string) (domain.VectorRecord, error)
	List(ctx context.Context, limit int) ([]domain.VectorRecord, error)
	Content(ctx context.Context, id string) ([]byte, string, error)
	Delete(ctx context.Context, id string) error
	Policy() intake.Policy
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the filedex embedded client entry point.
type Client struct {
	store     storage.Store
	files     fileUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a filedex Client and connects to the storage backend.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:        "filedex:",
		vectorDimensions: 1536,
		maxTextChars:     8000,
		truncation:       "end",
		maxFileSize:      50 << 20,
		maxBatchSize:     200 << 20,
		defaultTopK:      10,
		maxTopK:          100,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("filedex: storage not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (storage.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := storageRedis.NewStore(storageRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("filedex: create redis store: %w", err)
		}
		return s, nil
	case "s3":
		s, err := storageS3.NewStore(ctx, storageS3.Config{
			Bucket:    cfg.s3Bucket,
			Region:    cfg.s3Region,
			Endpoint:  cfg.s3Endpoint,
			AccessKey: cfg.s3AccessKey,
			SecretKey: cfg.s3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("filedex: create s3 store: %w", err)
		}
		return s, nil
	case "":
		return nil, errors.New("filedex: storage backend required (use WithRedis or WithS3)")
	default:
		return nil, fmt.Errorf("filedex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store storage.Store, cfg *clientConfig, obs *observer) *Client {
	// Embedder: noop если не задан (vector-запросы работают, текст вернёт ошибку)
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	gen := embeddinguc.NewGenerator(domEmb, cfg.maxTextChars, cfg.truncation, zap.NewNop())
	repo := records.New(store, cfg.keyPrefix)

	policy := intake.Policy{
		MaxFileSize:       cfg.maxFileSize,
		MaxBatchSize:      cfg.maxBatchSize,
		AllowedTypes:      cfg.allowedTypes,
		BlockedExtensions: cfg.blockedExtensions,
	}
	if len(policy.AllowedTypes) == 0 {
		policy.AllowedTypes = []string{
			"text/*", "application/json", "application/pdf", "application/xml",
			"image/png", "image/jpeg", "image/gif", "image/webp",
		}
	}
	if len(policy.BlockedExtensions) == 0 {
		policy.BlockedExtensions = []string{
			".exe", ".bat", ".cmd", ".com", ".scr", ".dll", ".msi", ".sh", ".ps1",
		}
	}

	files := fileuc.New(repo, gen, queryuc.New(),
		policy, cfg.vectorDimensions, cfg.embeddingModel,
		fileuc.QueryLimits{DefaultTopK: cfg.defaultTopK, MaxTopK: cfg.maxTopK},
		zap.NewNop())

	return &Client{
		store:     store,
		files:     files,
		healthSvc: healthuc.New(store, nil),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Upload validates, vectorizes, and stores a single file.
func (c *Client) Upload(ctx context.Context, file File) (rec Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload", start, err) }()

	stored, err := c.files.Upload(ctx, toFileContent(file))
	if err != nil {
		return Record{}, err
	}
	return toRecord(stored), nil
}

// UploadBatch uploads multiple files. An oversized batch rejects as a
// whole; otherwise per-file failures are reported in the returned items.
func (c *Client) UploadBatch(ctx context.Context, files []File) (items []BatchItem, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload_batch", start, err) }()

	contents := make([]domain.FileContent, len(files))
	for i, f := range files {
		contents[i] = toFileContent(f)
	}
	stored, err := c.files.UploadBatch(ctx, contents)
	if err != nil {
		return nil, err
	}
	return toBatchItems(stored), nil
}

// Query runs a similarity search over all stored records.
func (c *Client) Query(ctx context.Context, opts QueryOptions) (results []QueryResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	hits, err := c.files.Query(ctx, fileuc.QueryRequest{
		Text:     opts.Text,
		Vector:   opts.Vector,
		TopK:     opts.TopK,
		MinScore: opts.MinScore,
		Filter:   opts.Filter,
	})
	if err != nil {
		return nil, err
	}
	return toQueryResults(hits), nil
}

// Get retrieves a record by ID.
func (c *Client) Get(ctx context.Context, id string) (rec Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	stored, err := c.files.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return toRecord(stored), nil
}

// List returns up to limit records in stable key order.
func (c *Client) List(ctx context.Context, limit int) (recs []Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list", start, err) }()

	stored, err := c.files.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	recs = make([]Record, 0, len(stored))
	for _, rec := range stored {
		recs = append(recs, toRecord(rec))
	}
	return recs, nil
}

// Content returns the stored file bytes and content type for a record.
func (c *Client) Content(ctx context.Context, id string) (data []byte, contentType string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("content", start, err) }()

	return c.files.Content(ctx, id)
}

// Delete removes a record and its stored file.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	return c.files.Delete(ctx, id)
}

// Policy returns the active file intake policy.
func (c *Client) Policy() Policy {
	return toPolicy(c.files.Policy())
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"filedex: embedder not configured (use WithEmbedder)",
	)
}
