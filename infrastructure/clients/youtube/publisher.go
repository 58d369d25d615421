package youtube

import (
	"context"
	"fmt"
	"time"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// Publisher uploads videos to the channel behind a PlatformConnection.
type Publisher struct {
	oauthConfig *oauth2.Config
	storage     repository.IMediaStorage
	endpoint    string
}

func NewPublisher(cfg Config, storage repository.IMediaStorage) *Publisher {
	return &Publisher{oauthConfig: newOAuthConfig(cfg), storage: storage, endpoint: cfg.Endpoint}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformYouTube }

func (p *Publisher) Publish(ctx context.Context, req repository.PublishRequest) (*repository.PublishResult, error) {
	if p.oauthConfig.ClientID == "" {
		return nil, fmt.Errorf("youtube client: %w: %w", model.ErrPermanent, model.ErrNotConfigured)
	}
	original := tokenFromConnection(req.Connection)
	if expiresSoon(original) && original.RefreshToken != "" {
		original.Expiry = time.Now().Add(-1 * time.Minute) // force refresh on first use
	}
	ts := p.oauthConfig.TokenSource(ctx, original)
	tok, err := ts.Token()
	if err != nil {
		return nil, classifyError("youtube token refresh", err)
	}
	service, err := newService(ctx, oauth2.StaticTokenSource(tok), p.endpoint)
	if err != nil {
		return nil, err
	}

	var videoID string
	if req.ExistingPlatformVideoID != "" {
		videoID, err = p.update(ctx, service, req.ExistingPlatformVideoID, req.Metadata)
	} else {
		videoID, err = p.upload(ctx, service, req.Video, req.Metadata)
	}
	if err != nil {
		return nil, err
	}

	result := &repository.PublishResult{PlatformVideoID: videoID, URL: watchURLPrefix + videoID}
	if tokenChanged(tokenFromConnection(req.Connection), tok) {
		result.Credentials = credentialsFromToken(tok)
		logger.GetLogger().WithField("connection_id", req.Connection.ID).WithField("expiry", tok.Expiry).Info("YouTube token refreshed")
	}
	return result, nil
}

func (p *Publisher) upload(ctx context.Context, service *youtube.Service, video *model.Video, md model.PublishMetadata) (string, error) {
	if p.storage == nil {
		return "", fmt.Errorf("youtube upload: media storage: %w: %w", model.ErrPermanent, model.ErrNotConfigured)
	}
	body, err := p.storage.Open(ctx, video.S3Bucket, video.S3Key)
	if err != nil {
		return "", fmt.Errorf("open video %s: %w", video.ID, err)
	}
	defer body.Close()

	yv := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       md.Title,
			Description: md.Description,
			Tags:        md.Tags,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacyStatus(md.Privacy),
		},
	}
	call := service.Videos.Insert([]string{"snippet", "status"}, yv).Context(ctx)
	if video.MimeType != "" {
		call = call.Media(body, googleapi.ContentType(video.MimeType))
	} else {
		call = call.Media(body)
	}
	resp, err := call.Do()
	if err != nil {
		return "", classifyError("failed to upload video", err)
	}
	return resp.Id, nil
}

// update rewrites snippet and status of an already published video, keeping fields
// such as categoryId that the API requires on update.
func (p *Publisher) update(ctx context.Context, service *youtube.Service, videoID string, md model.PublishMetadata) (string, error) {
	existingResp, err := service.Videos.List([]string{"snippet", "status"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", classifyError("failed to fetch existing video", err)
	}
	if len(existingResp.Items) == 0 {
		return "", fmt.Errorf("video %s: %w: %w", videoID, model.ErrPermanent, model.ErrNotFound)
	}
	existing := existingResp.Items[0]
	if existing.Snippet == nil {
		existing.Snippet = &youtube.VideoSnippet{}
	}
	existing.Snippet.Title = md.Title
	existing.Snippet.Description = md.Description
	existing.Snippet.Tags = md.Tags
	if existing.Status == nil {
		existing.Status = &youtube.VideoStatus{}
	}
	existing.Status.PrivacyStatus = privacyStatus(md.Privacy)

	updated, err := service.Videos.Update([]string{"snippet", "status"}, existing).Context(ctx).Do()
	if err != nil {
		return "", classifyError("failed to update video", err)
	}
	return updated.Id, nil
}

var _ repository.IPlatformPublisher = (*Publisher)(nil)
