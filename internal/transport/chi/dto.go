package chi

import (
	"time"

	"github.com/meridia-cloud/filedex/internal/domain"
	healthuc "github.com/meridia-cloud/filedex/internal/usecase/health"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeFileRejected           = "file_rejected"
	codeNotFound               = "not_found"
	codeInvalidFilter          = "invalid_filter"
	codeInvalidQuery           = "invalid_query"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type recordResponse struct {
	ID          string         `json:"id"`
	FileName    string         `json:"file_name"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func recordToResponse(rec domain.VectorRecord) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		FileName:    rec.FileName(),
		ContentType: rec.ContentType,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt,
	}
}

type recordListResponse struct {
	Items []recordResponse `json:"items"`
	Total int              `json:"total"`
}

type batchItemResponse struct {
	FileName string          `json:"file_name"`
	Record   *recordResponse `json:"record,omitempty"`
	Error    *errorResponse  `json:"error,omitempty"`
}

type batchUploadResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

type queryRequest struct {
	Text     string         `json:"text,omitempty"`
	Vector   []float32      `json:"vector,omitempty"`
	TopK     int            `json:"top_k,omitempty"`
	MinScore *float64       `json:"min_score,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
}

type queryResultItem struct {
	RecordID    string         `json:"record_id"`
	Score       float64        `json:"score"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type queryResponse struct {
	Items []queryResultItem `json:"items"`
	Total int               `json:"total"`
}

type validationConfigResponse struct {
	MaxFileSizeBytes  int64    `json:"max_file_size_bytes"`
	MaxBatchSizeBytes int64    `json:"max_batch_size_bytes"`
	AllowedTypes      []string `json:"allowed_types"`
	BlockedExtensions []string `json:"blocked_extensions"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}
