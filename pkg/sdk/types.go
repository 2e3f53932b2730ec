package filedex

import (
	"time"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	fileuc "github.com/meridia-cloud/filedex/internal/usecase/file"
)

// File is a candidate upload. ContentType is optional; when empty or
// application/octet-stream the client sniffs it from the bytes.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Metadata    map[string]any
}

// Record is a stored file embedding with its metadata.
type Record struct {
	ID          string
	Vector      []float32
	ContentType string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// FileName returns the original file name from metadata, or "unknown".
func (r Record) FileName() string {
	if name, ok := r.Metadata[domain.MetaFileName].(string); ok && name != "" {
		return name
	}
	return "unknown"
}

// BatchItem is the per-file outcome of a batch upload. Exactly one of
// Record and Err is set.
type BatchItem struct {
	FileName string
	Record   *Record
	Err      error
}

// QueryOptions configures a similarity query. Exactly one of Text and
// Vector must be set.
type QueryOptions struct {
	Text     string
	Vector   []float32
	TopK     int
	MinScore *float64
	Filter   map[string]any
}

// QueryResult is a single similarity hit ordered by descending score.
type QueryResult struct {
	RecordID    string
	Score       float64
	ContentType string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Policy is the active file intake policy.
type Policy struct {
	MaxFileSize       int64
	MaxBatchSize      int64
	AllowedTypes      []string
	BlockedExtensions []string
}

func toFileContent(f File) domain.FileContent {
	return domain.FileContent{
		Name:        f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
		Metadata:    f.Metadata,
	}
}

func toRecord(rec domain.VectorRecord) Record {
	return Record{
		ID:          rec.ID,
		Vector:      rec.Vector,
		ContentType: rec.ContentType,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt,
	}
}

func toBatchItems(items []fileuc.BatchItem) []BatchItem {
	out := make([]BatchItem, 0, len(items))
	for _, item := range items {
		converted := BatchItem{FileName: item.FileName, Err: item.Err}
		if item.Record != nil {
			rec := toRecord(*item.Record)
			converted.Record = &rec
		}
		out = append(out, converted)
	}
	return out
}

func toQueryResults(results []domain.QueryResult) []QueryResult {
	out := make([]QueryResult, 0, len(results))
	for _, res := range results {
		out = append(out, QueryResult{
			RecordID:    res.RecordID,
			Score:       res.Score,
			ContentType: res.ContentType,
			Metadata:    res.Metadata,
			CreatedAt:   res.CreatedAt,
		})
	}
	return out
}

func toPolicy(p intake.Policy) Policy {
	return Policy{
		MaxFileSize:       p.MaxFileSize,
		MaxBatchSize:      p.MaxBatchSize,
		AllowedTypes:      p.AllowedTypes,
		BlockedExtensions: p.BlockedExtensions,
	}
}
