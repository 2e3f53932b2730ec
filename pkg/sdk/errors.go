package filedex

import (
	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/domain/intake"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrInvalidFilter          = domain.ErrInvalidFilter
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// RejectionError reports why file intake refused an upload.
// Use errors.As() to extract the reason.
type RejectionError = intake.RejectionError
