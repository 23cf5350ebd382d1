package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds AWS S3 settings
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	MaxBytes        int64
}

type s3API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// S3Fetcher reads audio objects from an S3 bucket
type S3Fetcher struct {
	client   s3API
	bucket   string
	maxBytes int64
}

// NewS3Fetcher loads AWS configuration and creates the client.
// Static credentials are used when given, otherwise the default chain.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Fetcher(client, cfg.Bucket, cfg.MaxBytes), nil
}

func newS3Fetcher(client s3API, bucket string, maxBytes int64) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: bucket, maxBytes: maxBytes}
}

// Fetch downloads the object at key
func (f *S3Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Error(key, err)
	}
	defer out.Body.Close()

	if f.maxBytes > 0 && aws.ToInt64(out.ContentLength) > f.maxBytes {
		return nil, tooLarge(key, f.maxBytes)
	}
	return readLimited(key, out.Body, f.maxBytes)
}

func s3Error(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return NotFoundError(key, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return NotFoundError(key, err)
		}
	}
	return TransientError(key, CodeUnavailable, err)
}
