package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for a MinIO or S3-compatible endpoint
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	MaxBytes  int64
}

// MinioFetcher reads audio objects through the MinIO client
type MinioFetcher struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

// NewMinioFetcher creates a new MinIO fetcher; the bucket must already exist
func NewMinioFetcher(cfg MinioConfig) (*MinioFetcher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinioFetcher{client: client, bucket: cfg.Bucket, maxBytes: cfg.MaxBytes}, nil
}

// Ping checks that the bucket is reachable
func (f *MinioFetcher) Ping(ctx context.Context) error {
	exists, err := f.client.BucketExists(ctx, f.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", f.bucket)
	}
	return nil
}

// Fetch downloads the object at key
func (f *MinioFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, minioError(key, err)
	}
	if f.maxBytes > 0 && info.Size > f.maxBytes {
		return nil, tooLarge(key, f.maxBytes)
	}

	data, err := readLimited(key, obj, f.maxBytes)
	if err != nil {
		if fe, ok := AsFetchError(err); ok && fe.Code == CodeUnavailable {
			return nil, minioError(key, fe.Err)
		}
		return nil, err
	}
	return data, nil
}

func minioError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket":
		return NotFoundError(key, err)
	case resp.StatusCode == http.StatusNotFound:
		return NotFoundError(key, err)
	default:
		return TransientError(key, CodeUnavailable, err)
	}
}
