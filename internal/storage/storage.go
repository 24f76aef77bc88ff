// Package storage persists document blobs. Records carry only the object
// key; the bytes live in one of these backends.
package storage

import (
	"context"
	"io"
	"log/slog"

	"github.com/daybook-app/daybook/internal/common"
)

// Backend stores and retrieves document blobs by key. Keys are opaque to
// callers; the documents service derives them from content hashes.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New selects a backend from configuration. An unknown backend name is an
// error rather than a silent fallback to local disk.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalBackend(cfg.LocalDir)
	case "s3":
		return NewS3Backend(ctx, cfg, logger)
	default:
		return nil, common.InvalidInputErrorf("unknown storage backend %q", cfg.Backend)
	}
}
