package domain

import "errors"

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidFilter signals a malformed metadata filter.
	ErrInvalidFilter = errors.New("invalid metadata filter")
	// ErrInvalidQuery signals a malformed query request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
