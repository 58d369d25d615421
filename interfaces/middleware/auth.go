package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
)

// Auth accepts HS256 bearer tokens whose issuer is an existing user id and sets "user_id".
func Auth(userRepository repository.IUser, secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			unauthorized(ctx, "Unauthorized")
			return
		}

		userClaims, err := getClaim(strings.TrimSpace(raw), secretKey)
		if err != nil {
			unauthorized(ctx, reason(err))
			return
		}
		if userClaims.Audience == model.OAuthStateAudience {
			unauthorized(ctx, "Token not accepted here")
			return
		}
		if userClaims.Issuer == "" {
			unauthorized(ctx, "Token has no issuer")
			return
		}
		if _, err := userRepository.GetByID(ctx.Request.Context(), userClaims.Issuer); err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				logger.GetLogger().WithField("error", err).Error("Failed to load token user")
			}
			unauthorized(ctx, "Unknown user")
			return
		}

		ctx.Set("user_id", userClaims.Issuer)
		ctx.Next()
	}
}

func unauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.Res{Success: false, Error: msg})
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return "Timing is everything"
		}
	}
	return fmt.Sprintf("Couldn't handle this token: %v", err)
}

func getClaim(token, secretKey string) (model.UserClaims, error) {
	var userClaims model.UserClaims
	parsed, err := jwt.ParseWithClaims(
		token,
		&userClaims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secretKey), nil
		},
	)
	if err != nil {
		return userClaims, err
	}
	if !parsed.Valid {
		return userClaims, errors.New("invalid token")
	}
	return userClaims, nil
}
