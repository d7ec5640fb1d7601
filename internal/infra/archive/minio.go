package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/mens-health/internal/domain/article"
)

// Config locates an S3 compatible bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// MinioArchive stores rendered article pages in an S3 compatible bucket.
type MinioArchive struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioArchive constructs the archive and makes sure the bucket exists.
func NewMinioArchive(ctx context.Context, cfg Config, logger *slog.Logger) (*MinioArchive, error) {
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "https"),
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	a := &MinioArchive{client: client, bucket: cfg.Bucket, logger: logger.With("component", "archive.minio")}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}
	return a, nil
}

func (a *MinioArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err == nil && exists {
		return nil
	}
	err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Put uploads one object in a single part.
func (a *MinioArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: true,
	})
	if err != nil {
		return err
	}
	a.logger.Debug("archived object", "key", key, "size", info.Size)
	return nil
}

var _ article.Archive = (*MinioArchive)(nil)

// sanitizeEndpoint strips scheme and path, which minio.New rejects.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if host, _, found := strings.Cut(raw, "/"); found {
		return host
	}
	return raw
}
