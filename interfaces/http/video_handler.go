package http

import (
	"net/http"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IVideoHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Stats(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	DownloadURL(c *gin.Context)
}

type VideoHandler struct {
	videoUsecase usecase.IVideoUsecase
}

func NewVideoHandler(videoUsecase usecase.IVideoUsecase) IVideoHandler {
	return &VideoHandler{videoUsecase: videoUsecase}
}

func (h *VideoHandler) Create(c *gin.Context) {
	var req dto.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	video, err := h.videoUsecase.Register(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, video)
}

// List handles GET /api/videos?q=&privacy=&order_by=&desc=&limit=&offset=
func (h *VideoHandler) List(c *gin.Context) {
	var filter dto.VideoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	if p := c.Query("privacy"); p != "" {
		privacy, err := model.ParsePrivacy(p)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Privacy = &privacy
	}
	filter.UserID = c.GetString("user_id")

	page, err := h.videoUsecase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, page)
}

func (h *VideoHandler) Stats(c *gin.Context) {
	stats, err := h.videoUsecase.Stats(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.videoUsecase.Get(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, video)
}

func (h *VideoHandler) Update(c *gin.Context) {
	var req dto.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	video, err := h.videoUsecase.Update(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, video)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.videoUsecase.Delete(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "video deleted")
}

func (h *VideoHandler) DownloadURL(c *gin.Context) {
	url, err := h.videoUsecase.DownloadURL(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, url)
}
