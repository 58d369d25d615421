package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/infrastructure/logger"
	"video-publisher/usecase"
)

type mockJobUsecase struct {
	mock.Mock
}

func (m *mockJobUsecase) Enqueue(ctx context.Context, userID string, req dto.EnqueuePublishJobRequest) ([]*model.PublishJob, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *mockJobUsecase) Get(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *mockJobUsecase) List(ctx context.Context, filter dto.PublishJobFilter) (*dto.Page, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.Page), args.Error(1)
}

func (m *mockJobUsecase) Stats(ctx context.Context, userID string) (*dto.JobStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobStats), args.Error(1)
}

func (m *mockJobUsecase) History(ctx context.Context, userID, id string) ([]*model.PublishJobAudit, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishJobAudit), args.Error(1)
}

func (m *mockJobUsecase) Cancel(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *mockJobUsecase) Retry(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *mockJobUsecase) ProcessDue(ctx context.Context, batch int) (*dto.ProcessResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProcessResult), args.Error(1)
}

func (m *mockJobUsecase) RequeueStale(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

// withUser stands in for the auth middleware.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func jobRouter(uc *mockJobUsecase) *gin.Engine {
	h := NewPublishJobHandler(uc, nil)
	r := gin.New()
	api := r.Group("/api", withUser("user-1"))
	api.POST("/publish-jobs", h.Enqueue)
	api.GET("/publish-jobs", h.List)
	api.GET("/publish-jobs/stream", h.Stream)
	api.POST("/publish-jobs/process", h.Process)
	api.GET("/publish-jobs/:id", h.Get)
	api.POST("/publish-jobs/:id/cancel", h.Cancel)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Res {
	var res dto.Res
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("video v1: %w", model.ErrForbidden), http.StatusForbidden},
		{model.ErrConflict, http.StatusConflict},
		{model.ErrInvalidTransition, http.StatusConflict},
		{model.ErrInvalidInput, http.StatusBadRequest},
		{model.ErrForeignKey, http.StatusBadRequest},
		{model.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestPublishJobHandler_Enqueue(t *testing.T) {
	uc := new(mockJobUsecase)
	uc.On("Enqueue", mock.Anything, "user-1", mock.MatchedBy(func(req dto.EnqueuePublishJobRequest) bool {
		return req.VideoID == "vid-1" && len(req.PlatformConnectionIDs) == 2
	})).Return([]*model.PublishJob{{ID: "job-1"}, {ID: "job-2"}}, nil)

	w := httptest.NewRecorder()
	body := `{"video_id":"vid-1","platform_connection_ids":["c1","c2"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/publish-jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	jobRouter(uc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
	uc.AssertExpectations(t)
}

func TestPublishJobHandler_EnqueueValidation(t *testing.T) {
	hook := new(test.Hook)
	logger.AddHook(hook)
	uc := new(mockJobUsecase)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/publish-jobs", strings.NewReader(`{"video_id":"vid-1","platform_connection_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	jobRouter(uc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, ErrorUnmarshal, entry.Message)
}

func TestPublishJobHandler_ListParsesFilters(t *testing.T) {
	uc := new(mockJobUsecase)
	uc.On("List", mock.Anything, mock.MatchedBy(func(f dto.PublishJobFilter) bool {
		return f.CreatedByID == "user-1" && f.VideoID == "vid-1" && f.Limit == 5 &&
			len(f.Statuses) == 2 && f.Statuses[1] == model.JobStatusFailed && f.ScheduledFrom != nil
	})).Return(&dto.Page{Items: []*model.PublishJob{}, Limit: 5}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/publish-jobs?status=pending,failed&video_id=vid-1&limit=5&scheduled_from=2026-01-01T00:00:00Z", nil)
	jobRouter(uc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestPublishJobHandler_ListRejectsUnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/publish-jobs?status=done", nil)
	jobRouter(new(mockJobUsecase)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestPublishJobHandler_CancelConflict(t *testing.T) {
	uc := new(mockJobUsecase)
	uc.On("Cancel", mock.Anything, "user-1", "job-1").Return(nil, fmt.Errorf("cancel COMPLETED job: %w", model.ErrInvalidTransition))

	w := httptest.NewRecorder()
	jobRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/publish-jobs/job-1/cancel", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w).Error, "invalid job status transition")
}

func TestPublishJobHandler_GetHidesInternalErrors(t *testing.T) {
	uc := new(mockJobUsecase)
	uc.On("Get", mock.Anything, "user-1", "job-1").Return(nil, errors.New("pq: connection refused"))

	w := httptest.NewRecorder()
	jobRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/publish-jobs/job-1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decode(t, w).Error)
}

func TestPublishJobHandler_Process(t *testing.T) {
	uc := new(mockJobUsecase)
	uc.On("ProcessDue", mock.Anything, 3).Return(&dto.ProcessResult{Claimed: 1, Completed: 1}, nil)

	w := httptest.NewRecorder()
	jobRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/publish-jobs/process?batch=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	jobRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/publish-jobs/process?batch=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNumberOfCalls(t, "ProcessDue", 1)
}

func TestPublishJobHandler_StreamNotConfigured(t *testing.T) {
	w := httptest.NewRecorder()
	jobRouter(new(mockJobUsecase)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/publish-jobs/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	}).Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
}

func TestYouTubeCallback_ProviderError(t *testing.T) {
	r := gin.New()
	r.GET("/auth/youtube/callback", NewYouTubeAuthHandler(nil).HandleCallback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?error=access_denied", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "access_denied")
}

type mockConnectionUsecase struct {
	mock.Mock
	usecase.IConnectionUsecase
}

func (m *mockConnectionUsecase) AuthURL(ctx context.Context, userID string, platform model.Platform) (*dto.AuthURL, error) {
	args := m.Called(ctx, userID, platform)
	return args.Get(0).(*dto.AuthURL), args.Error(1)
}

func (m *mockConnectionUsecase) CompleteOAuth(ctx context.Context, platform model.Platform, state, code, nonce string) (*model.PlatformConnection, error) {
	args := m.Called(ctx, platform, state, code, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformConnection), args.Error(1)
}

func TestYouTubeAuth_StateIsBoundToBrowserCookie(t *testing.T) {
	uc := new(mockConnectionUsecase)
	uc.On("AuthURL", mock.Anything, "user-1", model.PlatformYouTube).
		Return(&dto.AuthURL{URL: "https://accounts.example/auth", State: "signed-state", Nonce: "nonce-1"}, nil)
	uc.On("CompleteOAuth", mock.Anything, model.PlatformYouTube, "signed-state", "code-1", "nonce-1").
		Return(&model.PlatformConnection{ID: "conn-1"}, nil)
	uc.On("CompleteOAuth", mock.Anything, model.PlatformYouTube, "signed-state", "code-1", "").
		Return(nil, model.ErrInvalidInput)

	h := NewYouTubeAuthHandler(uc)
	r := gin.New()
	r.GET("/api/connections/youtube/auth-url", withUser("user-1"), h.GetAuthURL)
	r.GET("/auth/youtube/callback", h.HandleCallback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/connections/youtube/auth-url", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "nonce-1")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "oauth_state", cookies[0].Name)
	assert.Equal(t, "nonce-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?state=signed-state&code=code-1", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?state=signed-state&code=code-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertExpectations(t)
}

func TestPostHandler_DeleteRejectsNonNumericID(t *testing.T) {
	r := gin.New()
	r.DELETE("/api/posts/:id", withUser("user-1"), NewPostHandler(nil).Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/posts/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
