package query

import (
	"errors"
	"testing"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/filter"
)

func record(id string, vec []float32, meta map[string]any) domain.VectorRecord {
	return domain.VectorRecord{ID: id, Vector: vec, Metadata: meta}
}

func TestQuery_SortedDescending(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("low", []float32{-1, 0}, nil),
		record("high", []float32{1, 0}, nil),
		record("mid", []float32{1, 1}, nil),
	}

	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d: %g > %g",
				i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].RecordID != "high" {
		t.Errorf("expected high first, got %s", results[0].RecordID)
	}
}

func TestQuery_TopKTruncation(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("a", []float32{1, 0}, nil),
		record("b", []float32{0.9, 0.1}, nil),
		record("c", []float32{0.8, 0.2}, nil),
	}

	results, err := New().Query([]float32{1, 0}, candidates, 2, nil, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RecordID != "a" || results[1].RecordID != "b" {
		t.Errorf("expected best two kept, got %s %s", results[0].RecordID, results[1].RecordID)
	}
}

func TestQuery_MinScoreThreshold(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("aligned", []float32{1, 0}, nil),
		record("orthogonal", []float32{0, 1}, nil),
	}

	minScore := 0.5
	results, err := New().Query([]float32{1, 0}, candidates, 10, &minScore, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].RecordID != "aligned" {
		t.Fatalf("expected only the aligned record, got %v", results)
	}
}

// Empty result sets are a successful outcome, never an error.
func TestQuery_NoMatches(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("orthogonal", []float32{0, 1}, nil),
	}

	minScore := 0.9
	results, err := New().Query([]float32{1, 0}, candidates, 10, &minScore, nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result set, got %d", len(results))
	}
}

func TestQuery_DimensionMismatchFailsWholeQuery(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("ok", []float32{1, 0}, nil),
		record("bad", []float32{1, 0, 0}, nil),
	}

	_, err := New().Query([]float32{1, 0}, candidates, 10, nil, nil)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

// A mismatched record that the filter excludes does not fail the query:
// the filter pre-pass narrows candidates before the dimension check.
func TestQuery_FilterRunsBeforeDimensionCheck(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("ok", []float32{1, 0}, map[string]any{"category": "reports"}),
		record("bad", []float32{1, 0, 0}, map[string]any{"category": "other"}),
	}

	pred, err := filter.Parse(map[string]any{"category": "reports"})
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, pred)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].RecordID != "ok" {
		t.Fatalf("expected only the filtered record, got %v", results)
	}
}

func TestQuery_FilterWithThreshold(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("r1", []float32{1, 0}, map[string]any{"category": "reports", "priority": 8.0}),
		record("r2", []float32{0.9, 0.1}, map[string]any{"category": "reports", "priority": 2.0}),
		record("r3", []float32{1, 0}, map[string]any{"category": "invoices", "priority": 9.0}),
	}

	pred, err := filter.Parse(map[string]any{
		"category": "reports",
		"priority": map[string]any{"$gte": 5.0},
	})
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, pred)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].RecordID != "r1" {
		t.Fatalf("expected only r1, got %v", results)
	}
}

func TestQuery_ZeroNormCandidateScoresZero(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("zero", []float32{0, 0}, nil),
	}

	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].Score != 0 {
		t.Fatalf("expected zero-norm vector to score 0, got %v", results)
	}
}

func TestQuery_InvalidArguments(t *testing.T) {
	if _, err := New().Query(nil, nil, 10, nil, nil); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("empty query vector: expected ErrInvalidQuery, got %v", err)
	}
	if _, err := New().Query([]float32{1}, nil, 0, nil, nil); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("non-positive top_k: expected ErrInvalidQuery, got %v", err)
	}
}

// Equal scores keep candidate order, so repeated queries over the same
// stored set return an identical ordering.
func TestQuery_StableOrderForEqualScores(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("first", []float32{2, 0}, nil),
		record("second", []float32{3, 0}, nil),
	}

	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if results[0].RecordID != "first" || results[1].RecordID != "second" {
		t.Errorf("expected input order preserved for ties, got %s, %s",
			results[0].RecordID, results[1].RecordID)
	}
}

func TestQuery_FilterOverMixedTypeMetadata(t *testing.T) {
	candidates := []domain.VectorRecord{
		record("scalar", []float32{1, 0}, map[string]any{"tags": "go"}),
		record("array", []float32{1, 0}, map[string]any{"tags": []any{"go", "db"}}),
		record("object", []float32{1, 0}, map[string]any{"tags": map[string]any{"lang": "go"}}),
	}

	pred, err := filter.Parse(map[string]any{"tags": "go"})
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	// Non-comparable metadata values degrade to no match, never error the call.
	results, err := New().Query([]float32{1, 0}, candidates, 10, nil, pred)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].RecordID != "scalar" {
		t.Fatalf("expected only the scalar record, got %v", results)
	}
}
