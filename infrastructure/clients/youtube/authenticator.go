package youtube

import (
	"context"
	"fmt"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"

	"golang.org/x/oauth2"
)

// Authenticator runs the OAuth consent flow and resolves the connected channel.
type Authenticator struct {
	oauthConfig *oauth2.Config
	endpoint    string
}

func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{oauthConfig: newOAuthConfig(cfg), endpoint: cfg.Endpoint}
}

func (a *Authenticator) Platform() model.Platform { return model.PlatformYouTube }

// AuthCodeURL asks for offline access so Google returns a refresh token.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *Authenticator) Exchange(ctx context.Context, code string) (*model.Credentials, error) {
	if a.oauthConfig.ClientID == "" {
		return nil, fmt.Errorf("youtube oauth: %w", model.ErrNotConfigured)
	}
	tok, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return credentialsFromToken(tok), nil
}

func (a *Authenticator) Identify(ctx context.Context, creds model.Credentials) (*repository.PlatformIdentity, error) {
	tok := &oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"}
	if creds.ExpiresAt != nil {
		tok.Expiry = *creds.ExpiresAt
	}
	service, err := newService(ctx, oauth2.StaticTokenSource(tok), a.endpoint)
	if err != nil {
		return nil, err
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get my channel: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("no channel found for authenticated user: %w", model.ErrNotFound)
	}
	channel := response.Items[0]
	identity := &repository.PlatformIdentity{
		PlatformUserID: channel.Id,
		Metadata:       map[string]interface{}{},
	}
	if channel.Snippet != nil {
		identity.PlatformUsername = channel.Snippet.Title
		identity.Metadata["channel_title"] = channel.Snippet.Title
		if channel.Snippet.CustomUrl != "" {
			identity.Metadata["custom_url"] = channel.Snippet.CustomUrl
		}
		if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.Default != nil {
			identity.Metadata["thumbnail_url"] = channel.Snippet.Thumbnails.Default.Url
		}
	}
	return identity, nil
}

var _ repository.IPlatformAuthenticator = (*Authenticator)(nil)
