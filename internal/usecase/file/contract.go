package file

import (
	"context"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/filter"
)

// Repository defines the storage contract for vector records and file bodies.
type Repository interface {
	Put(ctx context.Context, rec domain.VectorRecord, content []byte) error
	Get(ctx context.Context, id string) (domain.VectorRecord, error)
	Content(ctx context.Context, id string) ([]byte, string, error)
	Candidates(ctx context.Context) ([]domain.VectorRecord, error)
	List(ctx context.Context, limit int) ([]domain.VectorRecord, error)
	Delete(ctx context.Context, id string) error
}

// Generator vectorizes text and whole files.
type Generator interface {
	EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error)
	EmbedFile(ctx context.Context, file domain.FileContent) (domain.EmbeddingResult, error)
}

// Ranker scores candidate records against a query vector.
type Ranker interface {
	Query(
		queryVec []float32,
		candidates []domain.VectorRecord,
		topK int,
		minScore *float64,
		pred filter.Predicate,
	) ([]domain.QueryResult, error)
}
