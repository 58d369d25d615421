package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
)

const defaultPresignTTL = 15 * time.Minute

type IVideoUsecase interface {
	Register(ctx context.Context, userID string, req dto.CreateVideoRequest) (*model.Video, error)
	Get(ctx context.Context, userID, id string) (*model.Video, error)
	List(ctx context.Context, filter dto.VideoFilter) (*dto.Page, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateVideoRequest) (*model.Video, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (*model.VideoAggregate, error)
	DownloadURL(ctx context.Context, userID, id string) (*dto.DownloadURL, error)
}

type videoUsecase struct {
	videos     repository.IVideo
	cache      repository.IVideoCache
	storage    repository.IMediaStorage
	presignTTL time.Duration
}

// NewVideoUsecase wires the video library. cache and storage may be nil.
func NewVideoUsecase(videos repository.IVideo, cache repository.IVideoCache, storage repository.IMediaStorage, presignTTL time.Duration) IVideoUsecase {
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}
	return &videoUsecase{videos: videos, cache: cache, storage: storage, presignTTL: presignTTL}
}

func (u *videoUsecase) Register(ctx context.Context, userID string, req dto.CreateVideoRequest) (*model.Video, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrInvalidInput)
	}
	key := strings.TrimPrefix(strings.TrimSpace(req.S3Key), "/")
	if key == "" {
		return nil, fmt.Errorf("%w: s3_key is required", model.ErrInvalidInput)
	}
	if req.Duration != nil && *req.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", model.ErrInvalidInput)
	}
	privacy := model.PrivacyPrivate
	if req.Privacy != "" {
		p, err := model.ParsePrivacy(req.Privacy)
		if err != nil {
			return nil, err
		}
		privacy = p
	}
	if u.storage == nil {
		return nil, fmt.Errorf("media storage: %w", model.ErrNotConfigured)
	}

	bucket := req.S3Bucket
	if bucket == "" {
		bucket = u.storage.DefaultBucket()
	}
	info, err := u.storage.Stat(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: object s3://%s/%s does not exist", model.ErrInvalidInput, bucket, key)
		}
		return nil, err
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = info.ContentType
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = path.Base(key)
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	video := &model.Video{
		UserID:       userID,
		Title:        title,
		Description:  req.Description,
		Tags:         tags,
		Privacy:      privacy,
		S3Key:        key,
		S3Bucket:     bucket,
		FileName:     fileName,
		FileSize:     info.Size,
		MimeType:     mimeType,
		Duration:     req.Duration,
		ThumbnailURL: req.ThumbnailURL,
	}
	if err := u.videos.Create(ctx, video); err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("video_id", video.ID).WithField("user_id", userID).Info("Video registered")
	return video, nil
}

func (u *videoUsecase) Get(ctx context.Context, userID, id string) (*model.Video, error) {
	video, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrForbidden
	}
	return video, nil
}

// load is a cache-aside read. Cache errors only cost a database round trip.
func (u *videoUsecase) load(ctx context.Context, id string) (*model.Video, error) {
	if u.cache != nil {
		cached, err := u.cache.Get(ctx, id)
		if err != nil {
			logger.GetLogger().WithField("video_id", id).WithField("error", err).Warn("Video cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}
	video, err := u.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.Set(ctx, video); err != nil {
			logger.GetLogger().WithField("video_id", id).WithField("error", err).Warn("Video cache write failed")
		}
	}
	return video, nil
}

func (u *videoUsecase) invalidate(ctx context.Context, id string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, id); err != nil {
		logger.GetLogger().WithField("video_id", id).WithField("error", err).Warn("Video cache invalidation failed")
	}
}

func (u *videoUsecase) List(ctx context.Context, filter dto.VideoFilter) (*dto.Page, error) {
	filter.Normalize()
	videos, err := u.videos.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := u.videos.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.Page{Items: videos, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (u *videoUsecase) Update(ctx context.Context, userID, id string, req dto.UpdateVideoRequest) (*model.Video, error) {
	video, err := u.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrForbidden
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", model.ErrInvalidInput)
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = req.Description
	}
	if req.Tags != nil {
		video.Tags = *req.Tags
		if video.Tags == nil {
			video.Tags = []string{}
		}
	}
	if req.Privacy != nil {
		p, err := model.ParsePrivacy(*req.Privacy)
		if err != nil {
			return nil, err
		}
		video.Privacy = p
	}
	if req.ThumbnailURL != nil {
		video.ThumbnailURL = req.ThumbnailURL
	}
	if req.Duration != nil {
		if *req.Duration < 0 {
			return nil, fmt.Errorf("%w: duration must not be negative", model.ErrInvalidInput)
		}
		video.Duration = req.Duration
	}

	if err := u.videos.Update(ctx, video); err != nil {
		return nil, err
	}
	u.invalidate(ctx, id)
	return video, nil
}

func (u *videoUsecase) Delete(ctx context.Context, userID, id string) error {
	video, err := u.videos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if video.UserID != userID {
		return model.ErrForbidden
	}
	if err := u.videos.Delete(ctx, id); err != nil {
		return err
	}
	u.invalidate(ctx, id)
	logger.GetLogger().WithField("video_id", id).Info("Video deleted")
	return nil
}

func (u *videoUsecase) Stats(ctx context.Context, userID string) (*model.VideoAggregate, error) {
	return u.videos.Aggregate(ctx, userID)
}

func (u *videoUsecase) DownloadURL(ctx context.Context, userID, id string) (*dto.DownloadURL, error) {
	video, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if u.storage == nil {
		return nil, fmt.Errorf("media storage: %w", model.ErrNotConfigured)
	}
	url, err := u.storage.PresignGet(ctx, video.S3Bucket, video.S3Key, u.presignTTL)
	if err != nil {
		return nil, err
	}
	return &dto.DownloadURL{URL: url, ExpiresIn: int64(u.presignTTL / time.Second)}, nil
}
