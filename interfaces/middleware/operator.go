package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"video-publisher/domain/dto"
	"video-publisher/infrastructure/logger"
)

// RequireOperator lets through only users listed in operatorIDs. It must run after Auth.
func RequireOperator(operatorIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		allowed[id] = struct{}{}
	}
	return func(ctx *gin.Context) {
		userID := ctx.GetString("user_id")
		if _, ok := allowed[userID]; !ok || userID == "" {
			logger.GetLogger().WithField("user_id", userID).WithField("path", ctx.FullPath()).Warn("Operator route denied")
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.Res{Success: false, Error: "Operator access required"})
			return
		}
		ctx.Next()
	}
}
