// Package storage defines the driver-level key-value contract shared by the
// S3 and Redis backends. Repositories compose record semantics on top of it.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for storage operations.
var (
	// ErrKeyNotFound signals a missing key.
	ErrKeyNotFound = errors.New("storage: key not found")
)

// Op constants name driver operations for error context.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpDelete = "DELETE"
	OpKeys   = "KEYS"
	OpPing   = "PING"
)

// Error wraps an underlying driver error with the operation name.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Store is the driver contract. Both backends expose a flat keyspace of
// opaque byte values; listing is by key prefix.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}
