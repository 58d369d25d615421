package http

import (
	"fmt"
	"net/http"
	"strconv"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IPostHandler interface {
	Create(c *gin.Context)
	Latest(c *gin.Context)
	List(c *gin.Context)
	Delete(c *gin.Context)
}

type PostHandler struct {
	postUsecase usecase.IPostUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := h.postUsecase.Create(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, post)
}

func (h *PostHandler) Latest(c *gin.Context) {
	post, err := h.postUsecase.Latest(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, post)
}

func (h *PostHandler) List(c *gin.Context) {
	var filter dto.PostFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	filter.CreatedByID = c.GetString("user_id")
	posts, err := h.postUsecase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, posts)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, fmt.Errorf("%w: post id must be numeric", model.ErrInvalidInput))
		return
	}
	if err := h.postUsecase.Delete(c.Request.Context(), c.GetString("user_id"), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "post deleted")
}
