package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"
)

type mockJobs struct {
	mock.Mock
	usecase.IPublishJobUsecase
}

func (m *mockJobs) List(ctx context.Context, filter dto.PublishJobFilter) (*dto.Page, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(*dto.Page), args.Error(1)
}

func (m *mockJobs) Retry(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *mockJobs) ProcessDue(ctx context.Context, batch int) (*dto.ProcessResult, error) {
	args := m.Called(ctx, batch)
	return args.Get(0).(*dto.ProcessResult), args.Error(1)
}

func (m *mockJobs) RequeueStale(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockUsers struct {
	mock.Mock
	usecase.IUserUsecase
}

func (m *mockUsers) Create(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "publishctl", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"publishctl"}, args...))
}

func TestRunner_Migrate(t *testing.T) {
	out := &bytes.Buffer{}
	called := false
	r := NewRunner(RunnerOpts{Output: out, Migrate: func(context.Context) error { called = true; return nil }})

	require.NoError(t, run(t, r, "migrate"))
	assert.True(t, called)
	assert.Contains(t, out.String(), "schema up to date")
}

func TestRunner_UserCreate(t *testing.T) {
	out := &bytes.Buffer{}
	users := new(mockUsers)
	users.On("Create", mock.Anything, mock.MatchedBy(func(req dto.CreateUserRequest) bool {
		return req.Email != nil && *req.Email == "ada@example.com" && req.EmailVerified
	})).Return(&model.User{ID: "user-1"}, nil)
	r := NewRunner(RunnerOpts{Output: out, Users: users})

	require.NoError(t, run(t, r, "user", "create", "--email", "ada@example.com", "--verified"))
	assert.Contains(t, out.String(), `"id": "user-1"`)
	users.AssertExpectations(t)
}

func TestRunner_JobsList(t *testing.T) {
	out := &bytes.Buffer{}
	jobs := new(mockJobs)
	url := "https://rumble.com/v1"
	jobs.On("List", mock.Anything, mock.MatchedBy(func(f dto.PublishJobFilter) bool {
		return f.Limit == 5 && len(f.Statuses) == 2 && f.Statuses[0] == model.JobStatusPending && f.Desc
	})).Return(&dto.Page{
		Items: []*model.PublishJob{{ID: "job-1", Status: model.JobStatusCompleted, VideoID: "vid-1", PlatformVideoURL: &url}},
		Total: 1,
	}, nil)
	r := NewRunner(RunnerOpts{Output: out, Jobs: jobs})

	require.NoError(t, run(t, r, "jobs", "list", "--status", "pending,failed", "--limit", "5"))
	assert.Contains(t, out.String(), "job-1\tCOMPLETED")
	assert.Contains(t, out.String(), "1 of 1 jobs")
}

func TestRunner_JobsListCSV(t *testing.T) {
	out := &bytes.Buffer{}
	jobs := new(mockJobs)
	jobs.On("List", mock.Anything, mock.Anything).Return(&dto.Page{
		Items: []*model.PublishJob{{ID: "job-1", Status: model.JobStatusFailed, VideoID: "vid-1"}},
		Total: 1,
	}, nil)
	r := NewRunner(RunnerOpts{Output: out, Jobs: jobs})
	path := filepath.Join(t.TempDir(), "jobs.csv")

	require.NoError(t, run(t, r, "jobs", "list", "--csv", path))
	assert.Contains(t, out.String(), "wrote 1 jobs to")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "job-1,vid-1")
}

func TestRunner_JobsListBadStatus(t *testing.T) {
	r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Jobs: new(mockJobs)})
	err := run(t, r, "jobs", "list", "--status", "done")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestRunner_JobsRetry(t *testing.T) {
	out := &bytes.Buffer{}
	jobs := new(mockJobs)
	jobs.On("Retry", mock.Anything, "", "job-1").Return(&model.PublishJob{ID: "job-1", Status: model.JobStatusPending}, nil)
	jobs.On("Retry", mock.Anything, "", "job-2").Return(nil, model.ErrInvalidTransition)
	r := NewRunner(RunnerOpts{Output: out, Jobs: jobs})

	require.NoError(t, run(t, r, "jobs", "retry", "--id", "job-1"))
	assert.Contains(t, out.String(), "job job-1 is PENDING")

	err := run(t, r, "jobs", "retry", "--id", "job-2")
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestRunner_ProcessAndRequeue(t *testing.T) {
	out := &bytes.Buffer{}
	jobs := new(mockJobs)
	jobs.On("ProcessDue", mock.Anything, 3).Return(&dto.ProcessResult{Claimed: 2, Completed: 1, Failed: 1}, nil)
	jobs.On("RequeueStale", mock.Anything).Return(4, nil)
	r := NewRunner(RunnerOpts{Output: out, Jobs: jobs})

	require.NoError(t, run(t, r, "jobs", "process", "--batch", "3"))
	require.NoError(t, run(t, r, "jobs", "requeue-stale"))
	assert.Contains(t, out.String(), "claimed=2 completed=1 retrying=0 failed=1")
	assert.Contains(t, out.String(), "requeued 4 stale jobs")
}
