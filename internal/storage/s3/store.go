// Package s3 implements the storage driver over an S3 bucket. Each key maps
// to one object; listing uses the bucket's native prefix listing.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/meridia-cloud/filedex/internal/storage"
)

// Objects at or above this size go through the multipart upload manager.
const largeObjectMinSize = 10 * 1024 * 1024

// Compile-time check: Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// Config holds bucket access settings. Endpoint and static credentials are
// for S3-compatible servers (minio); when empty the default AWS credential
// chain applies.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Store implements storage.Store over one S3 bucket.
type Store struct {
	bucket string
	client *s3.Client
}

// NewStore creates an S3 store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: cfg.Bucket, client: client}, nil
}

func newClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Endpoint != "" {
		return s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			if cfg.AccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
			}
		}), nil
	}

	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(sdkConfig), nil
}

// Get retrieves an object by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, &storage.Error{Op: storage.OpGet, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &storage.Error{Op: storage.OpGet, Err: err}
	}
	return data, nil
}

// Set stores an object. Large payloads go through the multipart uploader.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if len(value) >= largeObjectMinSize {
		uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
			u.PartSize = largeObjectMinSize
		})
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(value),
		})
		if err != nil {
			return &storage.Error{Op: storage.OpSet, Err: err}
		}
		return nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return &storage.Error{Op: storage.OpSet, Err: err}
	}
	return nil
}

// Delete removes an object. S3 deletes are idempotent, so a missing key is
// not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &storage.Error{Op: storage.OpDelete, Err: err}
	}
	return nil
}

// Keys lists all object keys under prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &storage.Error{Op: storage.OpKeys, Err: err}
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Ping checks bucket access.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return &storage.Error{Op: storage.OpPing, Err: err}
	}
	return nil
}

// WaitForReady polls Ping until the bucket responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for storage: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close is a no-op; the S3 client holds no persistent connections.
func (s *Store) Close() {}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
