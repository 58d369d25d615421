package repository

import (
	"context"

	"video-publisher/domain/model"
)

type PublishRequest struct {
	Job        *model.PublishJob
	Video      *model.Video
	Connection *model.PlatformConnection
	Metadata   model.PublishMetadata
	// ExistingPlatformVideoID is set for metadata updates of an already published video.
	ExistingPlatformVideoID string
}

type PublishResult struct {
	PlatformVideoID string
	URL             string
	// Credentials is non-nil when the client refreshed the OAuth token during the call.
	Credentials *model.Credentials
}

type IPlatformPublisher interface {
	Platform() model.Platform
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}

type IPublisherRegistry interface {
	Publisher(platform model.Platform) (IPlatformPublisher, error)
}
