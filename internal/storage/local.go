package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/daybook-app/daybook/internal/common"
)

// LocalBackend writes blobs under a single directory on the local
// filesystem. It is the default backend for development and single-node
// deployments.
type LocalBackend struct {
	baseDir string
}

func NewLocalBackend(baseDir string) (*LocalBackend, error) {
	if baseDir == "" {
		return nil, common.InvalidInputErrorf("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", baseDir, err)
	}
	return &LocalBackend{baseDir: baseDir}, nil
}

// resolve maps a key to a path under baseDir. Keys that would escape the
// base directory are rejected.
func (l *LocalBackend) resolve(key string) (string, error) {
	if key == "" {
		return "", common.InvalidInputErrorf("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", common.InvalidInputErrorf("storage key %q escapes the storage directory", key)
	}
	return filepath.Join(l.baseDir, cleaned), nil
}

func (l *LocalBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	// Write to a temp file first so a partial write never shows up under
	// the final key.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalize blob %s: %w", key, err)
	}
	return nil
}

func (l *LocalBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}
	return f, nil
}

// Delete removes a blob. Deleting a key that does not exist is not an
// error; S3 deletes behave the same way.
func (l *LocalBackend) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}
