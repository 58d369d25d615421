package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"video-publisher/domain/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Config holds the OAuth client used for every connected channel.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides the API base path. Tests point it at httptest.
	Endpoint string
}

func newOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			youtube.YoutubeScope,
			youtube.YoutubeUploadScope,
			youtube.YoutubeForceSslScope,
		},
		Endpoint: google.Endpoint,
	}
}

func tokenFromConnection(conn *model.PlatformConnection) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: conn.AccessToken, TokenType: "Bearer"}
	if conn.RefreshToken != nil {
		tok.RefreshToken = *conn.RefreshToken
	}
	if conn.TokenExpiresAt != nil {
		tok.Expiry = *conn.TokenExpiresAt
	}
	return tok
}

func credentialsFromToken(tok *oauth2.Token) *model.Credentials {
	creds := &model.Credentials{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		creds.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		creds.ExpiresAt = &exp
	}
	return creds
}

func newService(ctx context.Context, ts oauth2.TokenSource, endpoint string) (*youtube.Service, error) {
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// classifyError marks client errors as permanent. 429 stays retryable.
func classifyError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && isPermanentStatus(apiErr.Code) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrPermanent, err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && isPermanentStatus(retrieveErr.Response.StatusCode) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrPermanent, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

func privacyStatus(p model.Privacy) string {
	switch p {
	case model.PrivacyPublic:
		return "public"
	case model.PrivacyUnlisted:
		return "unlisted"
	}
	return "private"
}

// tokenChanged reports whether the token source handed back different credentials.
func tokenChanged(before, after *oauth2.Token) bool {
	return after.AccessToken != before.AccessToken ||
		(after.RefreshToken != "" && after.RefreshToken != before.RefreshToken) ||
		!after.Expiry.Equal(before.Expiry)
}

func expiresSoon(tok *oauth2.Token) bool {
	return !tok.Expiry.IsZero() && time.Until(tok.Expiry) < 5*time.Minute
}
