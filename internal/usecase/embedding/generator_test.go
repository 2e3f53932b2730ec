package embedding

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
)

// mockEmbedder records the text it was asked to embed and returns a
// fixed-dimension vector.
type mockEmbedder struct {
	lastText string
	calls    int
	dim      int
	err      error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastText = text
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: make([]float32, m.dim), TotalTokens: 7}, nil
}

func newTestGenerator(m *mockEmbedder) *Generator {
	return NewGenerator(m, 100, TruncateEnd, zap.NewNop())
}

func textFile(name, contentType, content string) domain.FileContent {
	return domain.FileContent{Name: name, ContentType: contentType, Data: []byte(content)}
}

func TestEmbedFile_UniformDimensionAcrossKinds(t *testing.T) {
	mock := &mockEmbedder{dim: 8}
	g := newTestGenerator(mock)

	files := []domain.FileContent{
		textFile("a.txt", "text/plain", "hello"),
		textFile("b.json", "application/json", `{"k":"v"}`),
		{Name: "c.png", ContentType: "image/png", Data: []byte{0x89, 0x50}},
		{Name: "d.bin", ContentType: "application/octet-stream", Data: []byte{0xFF, 0xFE, 0x00}},
	}

	for _, f := range files {
		result, err := g.EmbedFile(context.Background(), f)
		if err != nil {
			t.Fatalf("%s: embed failed: %v", f.Name, err)
		}
		if len(result.Embedding) != 8 {
			t.Errorf("%s: expected dimension 8, got %d", f.Name, len(result.Embedding))
		}
	}
}

func TestEmbedFile_TextPassesContentThrough(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	_, err := g.EmbedFile(context.Background(), textFile("a.txt", "text/plain", "some document text"))
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if mock.lastText != "some document text" {
		t.Errorf("expected raw text forwarded, got %q", mock.lastText)
	}
}

func TestEmbedFile_ImageUsesDescription(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	file := domain.FileContent{
		Name:        "photo.png",
		ContentType: "image/png",
		Data:        []byte{0x89, 0x50, 0x4E, 0x47},
		Metadata:    map[string]any{"camera": "X100"},
	}
	if _, err := g.EmbedFile(context.Background(), file); err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if !strings.HasPrefix(mock.lastText, "image: photo.png") {
		t.Errorf("expected description text, got %q", mock.lastText)
	}
	if !strings.Contains(mock.lastText, "camera: X100") {
		t.Errorf("expected metadata in description, got %q", mock.lastText)
	}
}

func TestEmbedFile_MalformedPDFFallsBack(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	file := domain.FileContent{
		Name:        "broken.pdf",
		ContentType: "application/pdf",
		Data:        []byte("not a real pdf"),
	}
	if _, err := g.EmbedFile(context.Background(), file); err != nil {
		t.Fatalf("fallback path must not fail the upload: %v", err)
	}
	if !strings.HasPrefix(mock.lastText, "PDF document: broken.pdf") {
		t.Errorf("expected PDF description fallback, got %q", mock.lastText)
	}
}

func TestEmbedFile_GenericBinaryUsesDescription(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	file := domain.FileContent{
		Name:        "data.bin",
		ContentType: "application/octet-stream",
		Data:        []byte{0xFF, 0xFE, 0xC0},
	}
	if _, err := g.EmbedFile(context.Background(), file); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if !strings.HasPrefix(mock.lastText, "file: data.bin") {
		t.Errorf("expected generic description, got %q", mock.lastText)
	}
}

func TestEmbedFile_GenericUTF8TreatedAsText(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	file := domain.FileContent{
		Name:        "config.unknown",
		ContentType: "application/octet-stream",
		Data:        []byte("plain readable payload"),
	}
	if _, err := g.EmbedFile(context.Background(), file); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if mock.lastText != "plain readable payload" {
		t.Errorf("expected content embedded directly, got %q", mock.lastText)
	}
}

func TestEmbedFile_Latin1Fallback(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	// 0xE9 is é in Latin-1 but invalid standalone UTF-8.
	file := domain.FileContent{
		Name:        "caf.txt",
		ContentType: "text/plain",
		Data:        []byte{'c', 'a', 'f', 0xE9},
	}
	if _, err := g.EmbedFile(context.Background(), file); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if mock.lastText != "café" {
		t.Errorf("expected Latin-1 decode, got %q", mock.lastText)
	}
}

func TestPreprocess_WhitespaceCollapse(t *testing.T) {
	mock := &mockEmbedder{dim: 4}
	g := newTestGenerator(mock)

	if _, err := g.EmbedText(context.Background(), "  a\n\tb   c  "); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if mock.lastText != "a b c" {
		t.Errorf("expected collapsed whitespace, got %q", mock.lastText)
	}
}

func TestPreprocess_TruncationStrategies(t *testing.T) {
	long := strings.Repeat("x", 30) + strings.Repeat("y", 30)

	tests := []struct {
		strategy string
		want     string
	}{
		{TruncateEnd, long[:10]},
		{TruncateStart, long[len(long)-10:]},
		{TruncateMiddle, long[:5] + long[len(long)-5:]},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			mock := &mockEmbedder{dim: 4}
			g := NewGenerator(mock, 10, tt.strategy, zap.NewNop())
			if _, err := g.EmbedText(context.Background(), long); err != nil {
				t.Fatalf("embed failed: %v", err)
			}
			if mock.lastText != tt.want {
				t.Errorf("strategy %s: expected %q, got %q", tt.strategy, tt.want, mock.lastText)
			}
		})
	}
}

func TestDescribe_DeterministicMetadataOrder(t *testing.T) {
	file := domain.FileContent{
		Name:        "a.png",
		ContentType: "image/png",
		Data:        []byte{1},
		Metadata:    map[string]any{"b": 2, "a": 1, "c": 3},
	}

	first := describe("image", file)
	for i := 0; i < 20; i++ {
		if got := describe("image", file); got != first {
			t.Fatalf("description not deterministic: %q vs %q", first, got)
		}
	}
	if !strings.Contains(first, "a: 1, b: 2, c: 3") {
		t.Errorf("expected sorted metadata keys, got %q", first)
	}
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		mime string
		want Kind
	}{
		{"text/plain", KindText},
		{"text/csv", KindText},
		{"application/json", KindText},
		{"application/pdf", KindPDF},
		{"image/png", KindImage},
		{"image/webp", KindImage},
		{"application/octet-stream", KindGeneric},
		{"video/mp4", KindGeneric},
	}
	for _, tt := range tests {
		if got := KindFor(tt.mime); got != tt.want {
			t.Errorf("KindFor(%q) = %s, want %s", tt.mime, got, tt.want)
		}
	}
}
