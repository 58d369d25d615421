package http

import (
	"net/http"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	List(c *gin.Context)
	Upsert(c *gin.Context)
	Deactivate(c *gin.Context)
	Delete(c *gin.Context)
}

type ConnectionHandler struct {
	connectionUsecase usecase.IConnectionUsecase
}

func NewConnectionHandler(connectionUsecase usecase.IConnectionUsecase) IConnectionHandler {
	return &ConnectionHandler{connectionUsecase: connectionUsecase}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.connectionUsecase.List(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, conns)
}

// Upsert handles PUT /api/connections/:platform with tokens obtained elsewhere.
func (h *ConnectionHandler) Upsert(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.UpsertConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	conn, err := h.connectionUsecase.Connect(c.Request.Context(), c.GetString("user_id"), platform, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, conn)
}

func (h *ConnectionHandler) Deactivate(c *gin.Context) {
	if err := h.connectionUsecase.Deactivate(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "connection deactivated")
}

func (h *ConnectionHandler) Delete(c *gin.Context) {
	if err := h.connectionUsecase.Delete(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "connection deleted")
}
