package dto

import "time"

type UpsertConnectionRequest struct {
	PlatformUserID   *string                `json:"platform_user_id"`
	PlatformUsername *string                `json:"platform_username"`
	AccessToken      string                 `json:"access_token" binding:"required"`
	RefreshToken     *string                `json:"refresh_token"`
	TokenExpiresAt   *time.Time             `json:"token_expires_at"`
	Metadata         map[string]interface{} `json:"metadata"`
}

type AuthURL struct {
	URL   string `json:"auth_url"`
	State string `json:"state"`
	// Nonce goes to the browser as the oauth_state cookie, never in the body.
	Nonce string `json:"-"`
}
