package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"video-publisher/infrastructure/logger"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

func NewID() string {
	return uuid.NewString()
}

func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies an HS256 token produced by GenerateToken and returns its claims.
func ParseToken(tokenString, secretKey string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.NewValidationError("unexpected signing method", jwt.ValidationErrorSignatureInvalid)
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}
	return claims, nil
}

// DeriveKey returns a purpose-bound signing key so tokens signed for one purpose never verify for another.
func DeriveKey(secretKey, purpose string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(purpose))
	return hex.EncodeToString(mac.Sum(nil))
}

func StringPtr(s string) *string { return &s }

func TimePtr(t time.Time) *time.Time { return &t }
