package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/daybook-app/daybook/internal/common"
)

// S3Backend stores blobs in an S3-compatible bucket (AWS S3, MinIO).
type S3Backend struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

func NewS3Backend(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*S3Backend, error) {
	if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, common.InvalidInputErrorf("S3 storage requires S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	b := &S3Backend{client: client, bucket: cfg.S3Bucket, logger: logger}
	if err := b.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *S3Backend) ensureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", b.bucket, err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", b.bucket, err)
	}
	b.logger.Info("storage.bucket.created", "bucket", b.bucket)
	return nil
}

func (b *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("store blob %s: %w", key, err)
	}
	return nil
}

func (b *S3Backend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	// GetObject defers the request until the first read. Probe now so a
	// missing key surfaces as a typed error instead of a read failure.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return obj, nil
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}
