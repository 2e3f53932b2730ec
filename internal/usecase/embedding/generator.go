// Package embedding turns heterogeneous file content into fixed-dimension
// vectors via a pluggable text-embedding backend. Every content kind
// converges on the same backend, so result dimension is uniform regardless
// of input type — the invariant the similarity math depends on.
package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	"github.com/meridia-cloud/filedex/internal/metrics"
)

// Truncation strategies for text over the character budget.
const (
	TruncateEnd    = "end"
	TruncateStart  = "start"
	TruncateMiddle = "middle"
)

// Generator produces embeddings for files and query text. It is stateless
// and safe for concurrent use; the backend is the only shared capability.
type Generator struct {
	embedder domain.Embedder
	maxChars int
	strategy string
	logger   *zap.Logger
}

// NewGenerator creates a Generator over the injected backend.
func NewGenerator(embedder domain.Embedder, maxChars int, strategy string, logger *zap.Logger) *Generator {
	if maxChars <= 0 {
		maxChars = 512
	}
	switch strategy {
	case TruncateStart, TruncateMiddle, TruncateEnd:
	default:
		strategy = TruncateEnd
	}
	return &Generator{
		embedder: embedder,
		maxChars: maxChars,
		strategy: strategy,
		logger:   logger,
	}
}

// EmbedText preprocesses and embeds query or document text.
func (g *Generator) EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	result, err := g.embedder.Embed(ctx, g.preprocess(text))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return result, nil
}

// EmbedFile embeds file content, dispatching on the content kind.
// Extraction failure is recoverable: the vector degrades to a
// metadata-derived description rather than failing the upload.
func (g *Generator) EmbedFile(ctx context.Context, file domain.FileContent) (domain.EmbeddingResult, error) {
	kind := KindFor(intake.NormalizeMIME(file.ContentType))

	var text string
	switch kind {
	case KindText:
		text = decodeText(file.Data)
	case KindPDF:
		text = g.pdfText(file)
	case KindImage:
		// Description proxy only — no visual features. A known fidelity
		// limitation, kept deliberate until a real image model is wired.
		text = describe("image", file)
	default:
		if utf8.Valid(file.Data) {
			text = string(file.Data)
		} else {
			g.fallback(kind, "binary_content", file)
			text = describe("file", file)
		}
	}

	return g.EmbedText(ctx, text)
}

// pdfText extracts text from every page in order. Empty extraction and
// extraction errors both degrade to a description string.
func (g *Generator) pdfText(file domain.FileContent) string {
	text, err := extractPDFText(file.Data)
	if err != nil {
		g.fallback(KindPDF, "extract_error", file, zap.Error(err))
		return describe("PDF document", file)
	}
	if strings.TrimSpace(text) == "" {
		g.fallback(KindPDF, "no_text", file)
		return describe("PDF document", file)
	}
	return text
}

func (g *Generator) fallback(kind Kind, reason string, file domain.FileContent, fields ...zap.Field) {
	metrics.ExtractionFallbacksTotal.WithLabelValues(kind.String(), reason).Inc()
	fields = append(fields,
		zap.String("file_name", file.Name),
		zap.String("kind", kind.String()),
		zap.String("reason", reason),
	)
	g.logger.Warn("Content extraction degraded to metadata description", fields...)
}

// describe builds the metadata-derived description used when content
// itself cannot be embedded.
func describe(label string, file domain.FileContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s, size: %d bytes, type: %s", label, file.Name, file.Size(), file.ContentType)

	// Caller metadata in deterministic order, so identical input yields an
	// identical vector.
	keys := make([]string, 0, len(file.Metadata))
	for k := range file.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ", %s: %v", k, file.Metadata[k])
	}
	return b.String()
}

// decodeText decodes bytes as UTF-8, falling back to Latin-1. Decoding
// never fails; every byte sequence is valid Latin-1.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Unreachable for ISO 8859-1, but degrade to a lossy conversion.
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}

// preprocess collapses whitespace and truncates to the character budget so
// embedding latency stays bounded.
func (g *Generator) preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= g.maxChars {
		return text
	}

	switch g.strategy {
	case TruncateStart:
		return string(runes[len(runes)-g.maxChars:])
	case TruncateMiddle:
		half := g.maxChars / 2
		return string(runes[:half]) + string(runes[len(runes)-half:])
	default:
		return string(runes[:g.maxChars])
	}
}
