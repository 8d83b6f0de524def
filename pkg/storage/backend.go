// Package storage provides the byte stores that back the pricing cache.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// BlobStore is a flat key/value store for small artifacts.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open resolves a location into a store. "s3://bucket/prefix" selects S3,
// anything else is treated as a local directory.
func Open(ctx context.Context, location, region string) (BlobStore, error) {
	if !strings.HasPrefix(location, "s3://") {
		return NewLocalStore(location), nil
	}

	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 location %q: missing bucket", location)
	}

	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config for s3 cache: %w", err)
	}
	return NewS3Store(cfg, bucket, prefix), nil
}
