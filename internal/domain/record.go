package domain

import "time"

// Metadata keys the file service writes alongside caller-supplied fields.
const (
	MetaFileName       = "file_name"
	MetaFileSize       = "file_size"
	MetaContentType    = "content_type"
	MetaUploadedAt     = "uploaded_at"
	MetaEmbeddingModel = "embedding_model"
)

// VectorRecord is a stored file embedding with its metadata.
// Vector length always equals the configured dimension; records with a
// mismatched dimension are rejected at intake, never truncated or padded.
type VectorRecord struct {
	ID          string
	Vector      []float32
	ContentType string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// FileName returns the original file name from metadata, or "unknown".
func (r VectorRecord) FileName() string {
	if name, ok := r.Metadata[MetaFileName].(string); ok && name != "" {
		return name
	}
	return "unknown"
}

// QueryResult is a single similarity hit. Constructed fresh per query,
// never persisted.
type QueryResult struct {
	RecordID    string
	Score       float64
	ContentType string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// FileContent describes a candidate file handed to the embedding generator.
type FileContent struct {
	Name        string
	ContentType string
	Data        []byte
	Metadata    map[string]any
}

// Size returns the content length in bytes.
func (f FileContent) Size() int64 { return int64(len(f.Data)) }
