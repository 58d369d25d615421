package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// User owns videos, platform connections, posts and publish jobs.
type User struct {
	ID            string    `json:"id"`
	Name          *string   `json:"name,omitempty"`
	Email         *string   `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Image         *string   `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OAuthStateAudience marks OAuth state tokens. The API never accepts them as bearer tokens.
const OAuthStateAudience = "oauth_state"

// UserClaims is the JWT payload accepted by the API. Issuer carries the user id.
type UserClaims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}
