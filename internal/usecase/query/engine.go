// Package query ranks stored vector records against a query vector
// using cosine similarity with optional metadata filtering.
package query

import (
	"fmt"
	"sort"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/filter"
	"github.com/meridia-cloud/filedex/internal/domain/vector"
)

// Engine scores candidate records against a query vector.
type Engine struct{}

// New creates a similarity engine.
func New() *Engine {
	return &Engine{}
}

// Query ranks candidates by cosine similarity to queryVec, descending.
//
// Candidates are narrowed by the metadata predicate first. A surviving
// candidate whose vector length differs from the query fails the whole
// call: a dimension mismatch means the store and query were produced by
// incompatible models, and a silent skip would hide that. Results below
// minScore are dropped, and at most topK results are returned. An empty
// result set is a successful outcome, not an error.
func (e *Engine) Query(
	queryVec []float32,
	candidates []domain.VectorRecord,
	topK int,
	minScore *float64,
	pred filter.Predicate,
) ([]domain.QueryResult, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}

	results := make([]domain.QueryResult, 0, len(candidates))
	for _, rec := range candidates {
		if pred != nil && !pred.Matches(rec.Metadata) {
			continue
		}
		if len(rec.Vector) != len(queryVec) {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
				domain.ErrVectorDimMismatch, rec.ID, len(rec.Vector), len(queryVec))
		}
		score := vector.Cosine(queryVec, rec.Vector)
		if minScore != nil && score < *minScore {
			continue
		}
		results = append(results, domain.QueryResult{
			RecordID:    rec.ID,
			Score:       score,
			ContentType: rec.ContentType,
			Metadata:    rec.Metadata,
			CreatedAt:   rec.CreatedAt,
		})
	}

	// Stable sort keeps candidate order between equal scores deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
