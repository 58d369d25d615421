package model

import (
	"fmt"
	"strings"
	"time"
)

type Platform string

const (
	PlatformYouTube Platform = "YOUTUBE"
	PlatformRumble  Platform = "RUMBLE"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToUpper(strings.TrimSpace(s))); p {
	case PlatformYouTube, PlatformRumble:
		return p, nil
	}
	return "", fmt.Errorf("%w: unsupported platform %q", ErrInvalidInput, s)
}

// PlatformConnection stores the OAuth credentials linking a user to one external platform.
// There is at most one connection per (UserID, Platform).
type PlatformConnection struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	Platform         Platform               `json:"platform"`
	PlatformUserID   *string                `json:"platform_user_id,omitempty"`
	PlatformUsername *string                `json:"platform_username,omitempty"`
	AccessToken      string                 `json:"-"`
	RefreshToken     *string                `json:"-"`
	TokenExpiresAt   *time.Time             `json:"token_expires_at,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	IsActive         bool                   `json:"is_active"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Credentials is a refreshed token set handed back by a platform client.
type Credentials struct {
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}
