package dto

import (
	"time"

	"video-publisher/domain/model"
)

type EnqueuePublishJobRequest struct {
	VideoID               string     `json:"video_id" binding:"required"`
	PlatformConnectionIDs []string   `json:"platform_connection_ids" binding:"required,min=1"`
	Title                 *string    `json:"title"`
	Description           *string    `json:"description"`
	Tags                  []string   `json:"tags"`
	Privacy               *string    `json:"privacy"`
	ScheduledFor          *time.Time `json:"scheduled_for"`
	IsUpdate              bool       `json:"is_update"`
}

type PublishJobFilter struct {
	Pagination
	IDs                  []string          `form:"-"`
	Statuses             []model.JobStatus `form:"-"`
	VideoID              string            `form:"video_id"`
	PlatformConnectionID string            `form:"platform_connection_id"`
	CreatedByID          string            `form:"-"`
	ScheduledFrom        *time.Time        `form:"-"`
	ScheduledTo          *time.Time        `form:"-"`
	Desc                 bool              `form:"desc"`
}

// JobStats is the per-status job count for one user.
type JobStats struct {
	Total    int64                     `json:"total"`
	ByStatus map[model.JobStatus]int64 `json:"by_status"`
}

type ProcessResult struct {
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
	// Released jobs were interrupted by shutdown and went back to PENDING untouched.
	Released int `json:"released"`
}
