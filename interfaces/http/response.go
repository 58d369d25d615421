package http

import (
	"errors"
	"net/http"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.Res{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.Res{Success: true, Message: msg})
}

// badRequest answers client input errors. They are logged at warn since the server is fine.
func badRequest(c *gin.Context, err error) {
	logger.GetLogger().WithField("error", err).Warn(ErrorUnmarshal)
	c.JSON(http.StatusBadRequest, dto.Res{Success: false, Error: err.Error()})
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrForeignKey):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithField("error", err).WithField("path", c.FullPath()).Error("Request failed")
		msg = http.StatusText(status)
	}
	c.JSON(status, dto.Res{Success: false, Error: msg})
}
