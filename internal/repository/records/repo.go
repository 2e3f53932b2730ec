// Package records persists vector records and their source files on the
// driver-level store. Record JSON lives under <prefix>records/<id>; the
// original file content under <prefix>files/<id>/<name>.
package records

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/meridia-cloud/filedex/internal/domain"
	"github.com/meridia-cloud/filedex/internal/storage"
)

// Store is the consumer interface for the records repository.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Repository stores vector records on a storage driver.
type Repository struct {
	store  Store
	prefix string
}

// New creates a records repository with the given key prefix.
func New(store Store, keyPrefix string) *Repository {
	return &Repository{store: store, prefix: keyPrefix}
}

func (r *Repository) recordKey(id string) string {
	return r.prefix + "records/" + id
}

func (r *Repository) fileKey(id, name string) string {
	return r.prefix + "files/" + id + "/" + name
}

// Put persists the record and, when content is non-nil, the original file
// alongside it for later retrieval.
func (r *Repository) Put(ctx context.Context, rec domain.VectorRecord, content []byte) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.recordKey(rec.ID), data); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}
	if content != nil {
		if err := r.store.Set(ctx, r.fileKey(rec.ID, rec.FileName()), content); err != nil {
			return fmt.Errorf("put file content %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Get retrieves one record by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.VectorRecord, error) {
	data, err := r.store.Get(ctx, r.recordKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return domain.VectorRecord{}, domain.ErrNotFound
		}
		return domain.VectorRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return unmarshalRecord(data)
}

// Content retrieves the original file bytes stored with a record.
func (r *Repository) Content(ctx context.Context, id string) ([]byte, string, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := r.store.Get(ctx, r.fileKey(id, rec.FileName()))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get file content %s: %w", id, err)
	}
	return data, rec.ContentType, nil
}

// Candidates returns every stored record in deterministic (key-sorted)
// order. The query engine scans this set linearly per query.
func (r *Repository) Candidates(ctx context.Context) ([]domain.VectorRecord, error) {
	return r.list(ctx, 0)
}

// List returns up to limit records in key-sorted order.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	return r.list(ctx, limit)
}

func (r *Repository) list(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	keys, err := r.store.Keys(ctx, r.prefix+"records/")
	if err != nil {
		return nil, fmt.Errorf("list record keys: %w", err)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	recs := make([]domain.VectorRecord, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			// The key vanished between listing and fetch; skip it.
			if errors.Is(err, storage.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get record %s: %w", key, err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Delete removes a record and its stored file content.
func (r *Repository) Delete(ctx context.Context, id string) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, r.recordKey(id)); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if err := r.store.Delete(ctx, r.fileKey(id, rec.FileName())); err != nil {
		return fmt.Errorf("delete file content %s: %w", id, err)
	}
	return nil
}
