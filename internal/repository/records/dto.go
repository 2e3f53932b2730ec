package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridia-cloud/filedex/internal/domain"
)

// recordDTO is the stored JSON shape of a vector record.
type recordDTO struct {
	ID          string         `json:"id"`
	Vector      []float32      `json:"vector"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func marshalRecord(rec domain.VectorRecord) ([]byte, error) {
	data, err := json.Marshal(recordDTO{
		ID:          rec.ID,
		Vector:      rec.Vector,
		ContentType: rec.ContentType,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}
	return data, nil
}

func unmarshalRecord(data []byte) (domain.VectorRecord, error) {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.VectorRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return domain.VectorRecord{
		ID:          dto.ID,
		Vector:      dto.Vector,
		ContentType: dto.ContentType,
		Metadata:    dto.Metadata,
		CreatedAt:   dto.CreatedAt,
	}, nil
}
