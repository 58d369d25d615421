package http

import (
	"net/http"

	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IUserHandler interface {
	Me(c *gin.Context)
}

type UserHandler struct {
	userUsecase usecase.IUserUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userUsecase.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}
