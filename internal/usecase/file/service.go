// Package file implements file intake, storage, and similarity retrieval:
// every accepted file becomes one vector record plus its original bytes.
package file

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/filter"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
)

// QueryLimits bounds similarity queries.
type QueryLimits struct {
	DefaultTopK     int
	MaxTopK         int
	DefaultMinScore float64
}

// Service handles file upload, retrieval, and similarity search.
type Service struct {
	repo       Repository
	gen        Generator
	ranker     Ranker
	policy     intake.Policy
	dimensions int
	model      string
	limits     QueryLimits
	logger     *zap.Logger
}

// New creates a file service.
func New(
	repo Repository, gen Generator, ranker Ranker,
	policy intake.Policy, dimensions int, model string,
	limits QueryLimits, logger *zap.Logger,
) *Service {
	if limits.DefaultTopK <= 0 {
		limits.DefaultTopK = 10
	}
	if limits.MaxTopK <= 0 {
		limits.MaxTopK = 100
	}
	return &Service{
		repo:       repo,
		gen:        gen,
		ranker:     ranker,
		policy:     policy,
		dimensions: dimensions,
		model:      model,
		limits:     limits,
		logger:     logger,
	}
}

// Upload validates, vectorizes, and stores a single file.
// The declared content type wins; sniffing fills it in only when the
// caller sends none (or the generic octet-stream default).
func (s *Service) Upload(ctx context.Context, file domain.FileContent) (domain.VectorRecord, error) {
	file.ContentType = s.resolveContentType(file)

	stat := intake.FileStat{Name: file.Name, ContentType: file.ContentType, Size: file.Size()}
	if err := intake.Validate(stat, s.policy); err != nil {
		return domain.VectorRecord{}, err
	}

	result, err := s.gen.EmbedFile(ctx, file)
	if err != nil {
		return domain.VectorRecord{}, fmt.Errorf("vectorize file: %w", err)
	}
	if s.dimensions > 0 && len(result.Embedding) != s.dimensions {
		return domain.VectorRecord{}, fmt.Errorf(
			"vector dimension mismatch: got %d, want %d: %w",
			len(result.Embedding), s.dimensions, domain.ErrVectorDimMismatch,
		)
	}

	now := time.Now().UTC()
	rec := domain.VectorRecord{
		ID:          uuid.NewString(),
		Vector:      result.Embedding,
		ContentType: intake.NormalizeMIME(file.ContentType),
		Metadata:    s.enrichMetadata(file, now),
		CreatedAt:   now,
	}

	if err := s.repo.Put(ctx, rec, file.Data); err != nil {
		return domain.VectorRecord{}, fmt.Errorf("store record: %w", err)
	}

	s.logger.Info("File uploaded",
		zap.String("record_id", rec.ID),
		zap.String("file_name", file.Name),
		zap.String("content_type", rec.ContentType),
		zap.Int64("size_bytes", file.Size()),
	)
	return rec, nil
}

// BatchItem is the per-file outcome of a batch upload.
type BatchItem struct {
	FileName string
	Record   *domain.VectorRecord
	Err      error
}

// UploadBatch validates the aggregate batch size first, then uploads each
// file independently. An oversized batch rejects as a whole; otherwise
// per-file failures do not abort the remaining files.
func (s *Service) UploadBatch(ctx context.Context, files []domain.FileContent) ([]BatchItem, error) {
	resolved := make([]domain.FileContent, len(files))
	stats := make([]intake.FileStat, len(files))
	for i, f := range files {
		resolved[i] = f
		resolved[i].ContentType = s.resolveContentType(f)
		stats[i] = intake.FileStat{Name: f.Name, ContentType: resolved[i].ContentType, Size: f.Size()}
	}
	if _, err := intake.ValidateBatch(stats, s.policy); err != nil {
		return nil, err
	}

	items := make([]BatchItem, 0, len(resolved))
	for _, f := range resolved {
		rec, err := s.Upload(ctx, f)
		if err != nil {
			items = append(items, BatchItem{FileName: f.Name, Err: err})
			continue
		}
		items = append(items, BatchItem{FileName: f.Name, Record: &rec})
	}
	return items, nil
}

// QueryRequest is a similarity query. Exactly one of Text or Vector must
// be set.
type QueryRequest struct {
	Text     string
	Vector   []float32
	TopK     int
	MinScore *float64
	Filter   map[string]any
}

// Query runs a similarity search over all stored records.
func (s *Service) Query(ctx context.Context, req QueryRequest) ([]domain.QueryResult, error) {
	hasText, hasVector := req.Text != "", len(req.Vector) > 0
	if hasText == hasVector {
		return nil, fmt.Errorf("%w: exactly one of text or vector is required", domain.ErrInvalidQuery)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.limits.DefaultTopK
	}
	if topK > s.limits.MaxTopK {
		return nil, fmt.Errorf("%w: top_k %d exceeds maximum %d",
			domain.ErrInvalidQuery, topK, s.limits.MaxTopK)
	}
	minScore := req.MinScore
	if minScore == nil && s.limits.DefaultMinScore > 0 {
		v := s.limits.DefaultMinScore
		minScore = &v
	}

	var pred filter.Predicate
	if len(req.Filter) > 0 {
		var err error
		if pred, err = filter.Parse(req.Filter); err != nil {
			return nil, err
		}
	}

	queryVec := req.Vector
	if hasText {
		result, err := s.gen.EmbedText(ctx, req.Text)
		if err != nil {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		queryVec = result.Embedding
	}

	candidates, err := s.repo.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	results, err := s.ranker.Query(queryVec, candidates, topK, minScore, pred)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Query completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Int("top_k", topK),
	)
	return results, nil
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.VectorRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.VectorRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns up to limit records in stable key order.
func (s *Service) List(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	recs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Content returns the stored file bytes and content type for a record.
func (s *Service) Content(ctx context.Context, id string) ([]byte, string, error) {
	data, contentType, err := s.repo.Content(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get content: %w", err)
	}
	return data, contentType, nil
}

// Delete removes a record and its stored file.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.logger.Info("Record deleted", zap.String("record_id", id))
	return nil
}

// Policy exposes the active validation policy.
func (s *Service) Policy() intake.Policy { return s.policy }

// resolveContentType returns the declared content type, sniffing the
// bytes only when the declaration is missing or the generic default.
func (s *Service) resolveContentType(file domain.FileContent) string {
	declared := intake.NormalizeMIME(file.ContentType)
	if declared != "application/octet-stream" {
		return declared
	}
	if len(file.Data) == 0 {
		return declared
	}
	return intake.NormalizeMIME(mimetype.Detect(file.Data).String())
}

func (s *Service) enrichMetadata(file domain.FileContent, now time.Time) map[string]any {
	meta := make(map[string]any, len(file.Metadata)+5)
	for k, v := range file.Metadata {
		meta[k] = v
	}
	meta[domain.MetaFileName] = file.Name
	meta[domain.MetaFileSize] = file.Size()
	meta[domain.MetaContentType] = intake.NormalizeMIME(file.ContentType)
	meta[domain.MetaUploadedAt] = now.Format(time.RFC3339)
	meta[domain.MetaEmbeddingModel] = s.model
	return meta
}
