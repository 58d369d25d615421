package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage reads uploaded videos from S3. Objects are streamed, never buffered on disk.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Storage loads the default AWS credential chain for region.
func NewS3Storage(ctx context.Context, region, bucket string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewS3StorageFromClient(s3.NewFromConfig(cfg), bucket), nil
}

func NewS3StorageFromClient(client *s3.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, presign: s3.NewPresignClient(client), bucket: bucket}
}

func (s *S3Storage) DefaultBucket() string { return s.bucket }

func (s *S3Storage) resolveBucket(bucket string) string {
	if bucket == "" {
		return s.bucket
	}
	return bucket
}

func (s *S3Storage) Stat(ctx context.Context, bucket, key string) (*repository.ObjectInfo, error) {
	bucket = s.resolveBucket(bucket)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, mapS3Error("s3 headObject "+key, err)
	}
	return &repository.ObjectInfo{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
	}, nil
}

// Open streams the object body. The caller closes it.
func (s *S3Storage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	bucket = s.resolveBucket(bucket)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, mapS3Error("s3 getObject "+key, err)
	}
	return out.Body, nil
}

func (s *S3Storage) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	bucket = s.resolveBucket(bucket)
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}, func(po *s3.PresignOptions) {
		po.Expires = ttl
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Error("Error generating pre-signed URL")
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func mapS3Error(op string, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	var respErr *awshttp.ResponseError
	switch {
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	case errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ repository.IMediaStorage = (*S3Storage)(nil)
