package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/storage"
)

type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type mockEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, PromptTokens: 3, TotalTokens: 3}, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, -0.2, 0.3}}
	cached := New(inner, newMemStore(), "filedex:", nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("first embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner call on miss, got %d", inner.calls)
	}
	if first.TotalTokens != 3 {
		t.Errorf("miss should report real token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("second embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected cache hit, inner called %d times", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit consumes no tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 3 || second.Embedding[1] != -0.2 {
		t.Errorf("cached vector mismatch: %v", second.Embedding)
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	cached := New(inner, newMemStore(), "filedex:", nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "a"); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if _, err := cached.Embed(context.Background(), "b"); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("distinct texts must both miss, inner called %d times", inner.calls)
	}
}

// Cache failures degrade to the inner embedder, never to a request error.
func TestEmbed_StoreFailuresAreSoft(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("store down")
	store.setErr = errors.New("store down")

	inner := &mockEmbedder{vec: []float32{1, 2}}
	cached := New(inner, store, "filedex:", nil, zap.NewNop())

	result, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected soft degradation, got %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("expected inner result, got %v", result.Embedding)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	innerErr := errors.New("provider down")
	cached := New(&mockEmbedder{err: innerErr}, newMemStore(), "filedex:", nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "hello"); !errors.Is(err, innerErr) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestVectorEncoding_RoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	decoded, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("index %d: %g != %g", i, decoded[i], vec[i])
		}
	}
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-4 payload")
	}
}
