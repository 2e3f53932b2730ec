package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
)

func TestInstrumentedEmbedder_Delegates(t *testing.T) {
	mock := &mockEmbedder{dim: 6}
	emb := NewInstrumentedEmbedder(mock, "openai", "test-model", zap.NewNop())

	result, err := emb.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(result.Embedding) != 6 {
		t.Errorf("expected dimension 6, got %d", len(result.Embedding))
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", mock.calls)
	}
}

func TestInstrumentedEmbedder_WrapsInnerError(t *testing.T) {
	innerErr := errors.New("backend down")
	mock := &mockEmbedder{dim: 6, err: innerErr}
	emb := NewInstrumentedEmbedder(mock, "openai", "test-model", zap.NewNop())

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

var _ domain.Embedder = (*InstrumentedEmbedder)(nil)
