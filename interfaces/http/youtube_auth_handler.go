package http

import (
	"fmt"
	"net/http"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

// IYouTubeAuthHandler drives the YouTube OAuth2 consent flow.
type IYouTubeAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	HandleCallback(ctx *gin.Context)
}

const (
	oauthStateCookie  = "oauth_state"
	oauthStateMaxAge  = 600
	oauthCallbackPath = "/auth/youtube"
)

type YouTubeAuthHandler struct {
	connectionUsecase usecase.IConnectionUsecase
}

func NewYouTubeAuthHandler(connectionUsecase usecase.IConnectionUsecase) IYouTubeAuthHandler {
	return &YouTubeAuthHandler{connectionUsecase: connectionUsecase}
}

// GetAuthURL handles GET /api/connections/youtube/auth-url
func (h *YouTubeAuthHandler) GetAuthURL(ctx *gin.Context) {
	authURL, err := h.connectionUsecase.AuthURL(ctx.Request.Context(), ctx.GetString("user_id"), model.PlatformYouTube)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// Lax so the cookie survives the top-level redirect back from Google.
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(oauthStateCookie, authURL.Nonce, oauthStateMaxAge, oauthCallbackPath, "", ctx.Request.TLS != nil, true)
	respond(ctx, http.StatusOK, authURL)
}

// HandleCallback handles GET /auth/youtube/callback. The user is recovered from the signed state and
// the oauth_state cookie must match the nonce inside it.
func (h *YouTubeAuthHandler) HandleCallback(ctx *gin.Context) {
	if errorParam := ctx.Query("error"); errorParam != "" {
		ctx.JSON(http.StatusBadRequest, dto.Res{
			Success: false,
			Error:   fmt.Sprintf("OAuth error: %s", errorParam),
			Message: ctx.Query("error_description"),
		})
		return
	}

	nonce, _ := ctx.Cookie(oauthStateCookie)
	conn, err := h.connectionUsecase.CompleteOAuth(ctx.Request.Context(), model.PlatformYouTube, ctx.Query("state"), ctx.Query("code"), nonce)
	ctx.SetCookie(oauthStateCookie, "", -1, oauthCallbackPath, "", ctx.Request.TLS != nil, true)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.Res{Success: true, Data: conn, Message: "YouTube channel connected"})
}
