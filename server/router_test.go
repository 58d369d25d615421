package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/infrastructure/metrics"
	"video-publisher/infrastructure/utils"
	httpHandler "video-publisher/interfaces/http"
)

type knownUsers struct{}

func (knownUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id}, nil
}
func (knownUsers) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, model.ErrNotFound
}
func (knownUsers) List(context.Context, dto.UserFilter) ([]*model.User, error) { return nil, nil }
func (knownUsers) Count(context.Context, dto.UserFilter) (int64, error)        { return 0, nil }
func (knownUsers) Create(context.Context, *model.User) error                   { return nil }
func (knownUsers) Update(context.Context, *model.User) error                   { return nil }
func (knownUsers) Delete(context.Context, string) error                        { return nil }

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return InitiateRouter(Handlers{
		Health:      httpHandler.NewHealthHandler(map[string]httpHandler.HealthCheck{}),
		User:        httpHandler.NewUserHandler(nil),
		Video:       httpHandler.NewVideoHandler(nil),
		Connection:  httpHandler.NewConnectionHandler(nil),
		YouTubeAuth: httpHandler.NewYouTubeAuthHandler(nil),
		Post:        httpHandler.NewPostHandler(nil),
		PublishJob:  httpHandler.NewPublishJobHandler(nil, nil),
	}, nil, RouterOptions{SecretKey: "secret", Metrics: metrics.New().Handler()})
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "publish_jobs_claimed_total")
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r := testRouter()
	for _, path := range []string{"/api/me", "/api/videos", "/api/publish-jobs/stats", "/api/connections"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_ProcessRequiresOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := InitiateRouter(Handlers{
		Health:      httpHandler.NewHealthHandler(map[string]httpHandler.HealthCheck{}),
		User:        httpHandler.NewUserHandler(nil),
		Video:       httpHandler.NewVideoHandler(nil),
		Connection:  httpHandler.NewConnectionHandler(nil),
		YouTubeAuth: httpHandler.NewYouTubeAuthHandler(nil),
		Post:        httpHandler.NewPostHandler(nil),
		PublishJob:  httpHandler.NewPublishJobHandler(nil, nil),
	}, knownUsers{}, RouterOptions{SecretKey: "secret", OperatorIDs: []string{"ops-1"}})

	token, err := utils.GenerateToken(map[string]interface{}{"iss": "user-1", "exp": time.Now().Add(time.Hour).Unix()}, "secret")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/publish-jobs/process", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunEvery(ctx, 5*time.Millisecond, func(context.Context) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunEvery did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
