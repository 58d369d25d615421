package repository

import (
	"context"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
)

type IPublishJob interface {
	Create(ctx context.Context, job *model.PublishJob) error
	// CreateBatch inserts all jobs atomically.
	CreateBatch(ctx context.Context, jobs []*model.PublishJob) error
	GetByID(ctx context.Context, id string) (*model.PublishJob, error)
	List(ctx context.Context, filter dto.PublishJobFilter) ([]*model.PublishJob, error)
	Count(ctx context.Context, filter dto.PublishJobFilter) (int64, error)
	CountByStatus(ctx context.Context, filter dto.PublishJobFilter) (map[model.JobStatus]int64, error)
	// ClaimDue moves up to limit due PENDING jobs to PROCESSING and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.PublishJob, error)
	MarkCompleted(ctx context.Context, id, platformVideoID, platformVideoURL string, at time.Time) error
	// MarkFailed records a failed attempt. A non-nil retryAt puts the job back to PENDING, otherwise it becomes FAILED.
	MarkFailed(ctx context.Context, id, errMsg string, retryAt *time.Time, at time.Time) error
	Cancel(ctx context.Context, id string, at time.Time) error
	Retry(ctx context.Context, id string, at time.Time) error
	// Release returns a PROCESSING job to PENDING without counting an attempt.
	Release(ctx context.Context, id string, at time.Time) error
	RequeueStale(ctx context.Context, startedBefore, at time.Time) ([]*model.PublishJob, error)
	FindLatestCompleted(ctx context.Context, videoID, platformConnectionID string) (*model.PublishJob, error)
}

type IPublishJobAudit interface {
	Append(ctx context.Context, entry *model.PublishJobAudit) error
	ListByJob(ctx context.Context, jobID string) ([]*model.PublishJobAudit, error)
}

type IJobEventPublisher interface {
	PublishJobEvent(ctx context.Context, evt model.JobEvent) error
}
