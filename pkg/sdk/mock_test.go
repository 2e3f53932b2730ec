package filedex

import (
	"context"
	"time"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
	fileuc "github.com/meridia-cloud/filedex/internal/usecase/file"
	healthuc "github.com/meridia-cloud/filedex/internal/usecase/health"
)

type mockFiles struct {
	uploaded   []domain.FileContent
	lastQuery  fileuc.QueryRequest
	record     domain.VectorRecord
	batchItems []fileuc.BatchItem
	results    []domain.QueryResult
	content    []byte
	deleted    []string
	err        error
}

func (m *mockFiles) Upload(_ context.Context, file domain.FileContent) (domain.VectorRecord, error) {
	if m.err != nil {
		return domain.VectorRecord{}, m.err
	}
	m.uploaded = append(m.uploaded, file)
	return m.record, nil
}

func (m *mockFiles) UploadBatch(_ context.Context, files []domain.FileContent) ([]fileuc.BatchItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.uploaded = append(m.uploaded, files...)
	return m.batchItems, nil
}

func (m *mockFiles) Query(_ context.Context, req fileuc.QueryRequest) ([]domain.QueryResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastQuery = req
	return m.results, nil
}

func (m *mockFiles) Get(_ context.Context, _ string) (domain.VectorRecord, error) {
	if m.err != nil {
		return domain.VectorRecord{}, m.err
	}
	return m.record, nil
}

func (m *mockFiles) List(_ context.Context, _ int) ([]domain.VectorRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.VectorRecord{m.record}, nil
}

func (m *mockFiles) Content(_ context.Context, _ string) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.content, m.record.ContentType, nil
}

func (m *mockFiles) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockFiles) Policy() intake.Policy {
	return intake.Policy{
		MaxFileSize:       1 << 20,
		MaxBatchSize:      4 << 20,
		AllowedTypes:      []string{"text/*"},
		BlockedExtensions: []string{".exe"},
	}
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func testRecord() domain.VectorRecord {
	return domain.VectorRecord{
		ID:          "rec-1",
		Vector:      []float32{1, 0, 0},
		ContentType: "text/plain",
		Metadata:    map[string]any{domain.MetaFileName: "a.txt"},
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}
