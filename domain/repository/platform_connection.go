package repository

import (
	"context"

	"video-publisher/domain/model"
)

type IPlatformConnection interface {
	GetByID(ctx context.Context, id string) (*model.PlatformConnection, error)
	GetByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.PlatformConnection, error)
	ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error)
	// Upsert inserts or replaces the connection keyed by (UserID, Platform) and fills in ID and timestamps.
	Upsert(ctx context.Context, conn *model.PlatformConnection) error
	UpdateTokens(ctx context.Context, id string, creds model.Credentials) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type PlatformIdentity struct {
	PlatformUserID   string
	PlatformUsername string
	Metadata         map[string]interface{}
}

// IPlatformAuthenticator runs the OAuth authorization-code flow for one platform.
type IPlatformAuthenticator interface {
	Platform() model.Platform
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*model.Credentials, error)
	Identify(ctx context.Context, creds model.Credentials) (*PlatformIdentity, error)
}
