package usecase_test

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
)

type MockVideoRepo struct {
	mock.Mock
}

func (m *MockVideoRepo) GetByID(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

func (m *MockVideoRepo) List(ctx context.Context, filter dto.VideoFilter) ([]*model.Video, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*model.Video), args.Error(1)
}

func (m *MockVideoRepo) Count(ctx context.Context, filter dto.VideoFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVideoRepo) Create(ctx context.Context, video *model.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *MockVideoRepo) Update(ctx context.Context, video *model.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *MockVideoRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVideoRepo) Aggregate(ctx context.Context, userID string) (*model.VideoAggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoAggregate), args.Error(1)
}

type MockVideoCache struct {
	mock.Mock
}

func (m *MockVideoCache) Get(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

func (m *MockVideoCache) Set(ctx context.Context, video *model.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *MockVideoCache) Invalidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Stat(ctx context.Context, bucket, key string) (*repository.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DefaultBucket() string {
	return m.Called().String(0)
}

type MockConnectionRepo struct {
	mock.Mock
}

func (m *MockConnectionRepo) GetByID(ctx context.Context, id string) (*model.PlatformConnection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformConnection), args.Error(1)
}

func (m *MockConnectionRepo) GetByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.PlatformConnection, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformConnection), args.Error(1)
}

func (m *MockConnectionRepo) ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.PlatformConnection), args.Error(1)
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, conn *model.PlatformConnection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepo) UpdateTokens(ctx context.Context, id string, creds model.Credentials) error {
	return m.Called(ctx, id, creds).Error(0)
}

func (m *MockConnectionRepo) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockConnectionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Platform() model.Platform {
	return model.PlatformYouTube
}

func (m *MockAuthenticator) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockAuthenticator) Exchange(ctx context.Context, code string) (*model.Credentials, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credentials), args.Error(1)
}

func (m *MockAuthenticator) Identify(ctx context.Context, creds model.Credentials) (*repository.PlatformIdentity, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PlatformIdentity), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *model.PublishJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockJobRepo) CreateBatch(ctx context.Context, jobs []*model.PublishJob) error {
	return m.Called(ctx, jobs).Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, id string) (*model.PublishJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) List(ctx context.Context, filter dto.PublishJobFilter) ([]*model.PublishJob, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) Count(ctx context.Context, filter dto.PublishJobFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepo) CountByStatus(ctx context.Context, filter dto.PublishJobFilter) (map[model.JobStatus]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[model.JobStatus]int64), args.Error(1)
}

func (m *MockJobRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.PublishJob, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) MarkCompleted(ctx context.Context, id, platformVideoID, platformVideoURL string, at time.Time) error {
	return m.Called(ctx, id, platformVideoID, platformVideoURL, at).Error(0)
}

func (m *MockJobRepo) MarkFailed(ctx context.Context, id, errMsg string, retryAt *time.Time, at time.Time) error {
	return m.Called(ctx, id, errMsg, retryAt, at).Error(0)
}

func (m *MockJobRepo) Cancel(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockJobRepo) Retry(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockJobRepo) Release(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockJobRepo) RequeueStale(ctx context.Context, startedBefore, at time.Time) ([]*model.PublishJob, error) {
	args := m.Called(ctx, startedBefore, at)
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) FindLatestCompleted(ctx context.Context, videoID, platformConnectionID string) (*model.PublishJob, error) {
	args := m.Called(ctx, videoID, platformConnectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Append(ctx context.Context, entry *model.PublishJobAudit) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAudit) ListByJob(ctx context.Context, jobID string) ([]*model.PublishJobAudit, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]*model.PublishJobAudit), args.Error(1)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Publisher(platform model.Platform) (repository.IPlatformPublisher, error) {
	args := m.Called(platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.IPlatformPublisher), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Platform() model.Platform {
	return model.PlatformYouTube
}

func (m *MockPublisher) Publish(ctx context.Context, req repository.PublishRequest) (*repository.PublishResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PublishResult), args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveProcessed(platform, outcome string, d time.Duration) {
	m.Called(platform, outcome, d)
}

func (m *MockMetrics) AddClaimed(n int) {
	m.Called(n)
}

func (m *MockMetrics) AddRequeued(n int) {
	m.Called(n)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, filter dto.UserFilter) ([]*model.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepo) Count(ctx context.Context, filter dto.UserFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPostRepo struct {
	mock.Mock
}

func (m *MockPostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepo) GetLatest(ctx context.Context, createdByID string) (*model.Post, error) {
	args := m.Called(ctx, createdByID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepo) List(ctx context.Context, filter dto.PostFilter) ([]*model.Post, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepo) Create(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepo) Update(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
