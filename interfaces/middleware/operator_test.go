package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequireOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		operators []string
		userID    string
		want      int
	}{
		{"operator", []string{"ops-1"}, "ops-1", http.StatusOK},
		{"regular user", []string{"ops-1"}, "user-1", http.StatusForbidden},
		{"no operators configured", nil, "user-1", http.StatusForbidden},
		{"no user", []string{""}, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/api/publish-jobs/process",
				func(c *gin.Context) {
					if tt.userID != "" {
						c.Set("user_id", tt.userID)
					}
				},
				RequireOperator(tt.operators),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/publish-jobs/process", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
