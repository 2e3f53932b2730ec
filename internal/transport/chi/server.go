// Package chi is the HTTP transport: routing, request decoding, and the
// mapping from domain errors to JSON error responses.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	fileuc "github.com/meridia-cloud/filedex/internal/usecase/file"
	healthuc "github.com/meridia-cloud/filedex/internal/usecase/health"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing;
// larger bodies spill to temp files.
const maxMultipartMemory = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	files         *fileuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(files *fileuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		files:  files,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		rejectionHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/upload", s.Upload)
	r.Post("/upload-batch", s.UploadBatch)
	r.Post("/query", s.Query)
	r.Get("/files", s.ListFiles)
	r.Get("/files/{id}", s.GetFile)
	r.Get("/files/{id}/content", s.GetFileContent)
	r.Delete("/files/{id}", s.DeleteFile)
	r.Get("/validation-config", s.ValidationConfig)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Upload handles POST /upload (multipart, single "file" part).
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Missing file part")
		return
	}
	defer func() { _ = file.Close() }()

	meta, err := metadataFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	content, err := fileFromPart(file, header, meta)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	rec, err := s.files.Upload(r.Context(), content)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// UploadBatch handles POST /upload-batch (multipart, repeated "files" parts).
func (s *Server) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer cleanupMultipart(r)

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Missing files parts")
		return
	}

	meta, err := metadataFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	files := make([]domain.FileContent, 0, len(headers))
	for _, h := range headers {
		part, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Read part "+h.Filename+": "+err.Error())
			return
		}
		content, err := fileFromPart(part, h, meta)
		_ = part.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		files = append(files, content)
	}

	items, err := s.files.UploadBatch(r.Context(), files)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	succeeded, failed := 0, 0
	resp := batchUploadResponse{Items: make([]batchItemResponse, len(items))}
	for i, item := range items {
		out := batchItemResponse{FileName: item.FileName}
		if item.Err != nil {
			failed++
			out.Error = &errorResponse{
				Code:    batchErrorCode(item.Err),
				Message: safeDomainMessage(item.Err),
			}
		} else {
			succeeded++
			rr := recordToResponse(*item.Record)
			out.Record = &rr
		}
		resp.Items[i] = out
	}
	resp.Succeeded = succeeded
	resp.Failed = failed

	writeJSON(w, http.StatusOK, resp)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.files.Query(r.Context(), fileuc.QueryRequest{
		Text:     req.Text,
		Vector:   req.Vector,
		TopK:     req.TopK,
		MinScore: req.MinScore,
		Filter:   req.Filter,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]queryResultItem, len(results))
	for i, res := range results {
		items[i] = queryResultItem{
			RecordID:    res.RecordID,
			Score:       res.Score,
			ContentType: res.ContentType,
			Metadata:    res.Metadata,
			CreatedAt:   res.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{Items: items, Total: len(items)})
}

// ListFiles handles GET /files.
func (s *Server) ListFiles(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.files.List(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recordResponse, len(recs))
	for i, rec := range recs {
		items[i] = recordToResponse(rec)
	}

	writeJSON(w, http.StatusOK, recordListResponse{Items: items, Total: len(items)})
}

// GetFile handles GET /files/{id}.
func (s *Server) GetFile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.files.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// GetFileContent handles GET /files/{id}/content (original bytes).
func (s *Server) GetFileContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, contentType, err := s.files.Content(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteFile handles DELETE /files/{id}.
func (s *Server) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidationConfig handles GET /validation-config.
func (s *Server) ValidationConfig(w http.ResponseWriter, r *http.Request) {
	policy := s.files.Policy()
	writeJSON(w, http.StatusOK, validationConfigResponse{
		MaxFileSizeBytes:  policy.MaxFileSize,
		MaxBatchSizeBytes: policy.MaxBatchSize,
		AllowedTypes:      policy.AllowedTypes,
		BlockedExtensions: policy.BlockedExtensions,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func fileFromPart(part multipart.File, header *multipart.FileHeader, meta map[string]any) (domain.FileContent, error) {
	data, err := io.ReadAll(part)
	if err != nil {
		return domain.FileContent{}, fmt.Errorf("read file %s: %w", header.Filename, err)
	}
	return domain.FileContent{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Metadata:    meta,
	}, nil
}

// metadataFromForm decodes the optional "metadata" form field (JSON object).
func metadataFromForm(r *http.Request) (map[string]any, error) {
	raw := r.FormValue("metadata")
	if raw == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("metadata must be a JSON object: %w", err)
	}
	return meta, nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var rejection *intake.RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidFilter,
		domain.ErrInvalidQuery,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rejectionHandler maps intake policy rejections to 400 with the full reason.
func rejectionHandler(w http.ResponseWriter, err error, _ string) bool {
	var rejection *intake.RejectionError
	if !errors.As(err, &rejection) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeFileRejected, rejection.Reason)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func batchErrorCode(err error) string {
	var rejection *intake.RejectionError
	switch {
	case errors.As(err, &rejection):
		return codeFileRejected
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return codeVectorDimMismatch
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return codeEmbeddingProviderError
	default:
		return codeInternalError
	}
}
