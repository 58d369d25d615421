package repository

import (
	"context"
	"io"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
)

type IVideo interface {
	GetByID(ctx context.Context, id string) (*model.Video, error)
	List(ctx context.Context, filter dto.VideoFilter) ([]*model.Video, error)
	Count(ctx context.Context, filter dto.VideoFilter) (int64, error)
	Create(ctx context.Context, video *model.Video) error
	Update(ctx context.Context, video *model.Video) error
	Delete(ctx context.Context, id string) error
	Aggregate(ctx context.Context, userID string) (*model.VideoAggregate, error)
}

// IVideoCache is a best-effort lookaside cache. Get returns (nil, nil) on a miss.
type IVideoCache interface {
	Get(ctx context.Context, id string) (*model.Video, error)
	Set(ctx context.Context, video *model.Video) error
	Invalidate(ctx context.Context, id string) error
}

type ObjectInfo struct {
	Size        int64
	ContentType string
	ETag        string
}

// IMediaStorage gives read access to uploaded video objects.
type IMediaStorage interface {
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	DefaultBucket() string
}
