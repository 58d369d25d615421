package model

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// AllJobStatuses lists every status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing, JobStatusCancelled},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusPending},
	JobStatusFailed:     {JobStatusPending},
}

func ParseJobStatus(s string) (JobStatus, error) {
	for _, st := range AllJobStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown job status %q", ErrInvalidInput, s)
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal is true for statuses the worker never touches again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// PublishJob is one attempt to publish (or re-publish metadata of) a Video to a PlatformConnection.
type PublishJob struct {
	ID                   string     `json:"id"`
	VideoID              string     `json:"video_id"`
	PlatformConnectionID string     `json:"platform_connection_id"`
	CreatedByID          string     `json:"created_by_id"`
	Status               JobStatus  `json:"status"`
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Tags                 []string   `json:"tags,omitempty"`
	Privacy              *Privacy   `json:"privacy,omitempty"`
	ScheduledFor         *time.Time `json:"scheduled_for,omitempty"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	PlatformVideoID      *string    `json:"platform_video_id,omitempty"`
	PlatformVideoURL     *string    `json:"platform_video_url,omitempty"`
	ErrorMessage         *string    `json:"error_message,omitempty"`
	RetryCount           int        `json:"retry_count"`
	IsUpdate             bool       `json:"is_update"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Backoff returns base * 2^retryCount capped at max.
func Backoff(retryCount int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < retryCount; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// PublishMetadata is what actually gets sent to the platform.
type PublishMetadata struct {
	Title       string
	Description string
	Tags        []string
	Privacy     Privacy
}

// ResolvePublishMetadata applies the job's overrides on top of the video's own fields.
func ResolvePublishMetadata(job *PublishJob, video *Video) PublishMetadata {
	md := PublishMetadata{
		Title:   video.Title,
		Tags:    video.Tags,
		Privacy: video.Privacy,
	}
	if video.Description != nil {
		md.Description = *video.Description
	}
	if job == nil {
		return md
	}
	if job.Title != nil && *job.Title != "" {
		md.Title = *job.Title
	}
	if job.Description != nil {
		md.Description = *job.Description
	}
	if job.Tags != nil {
		md.Tags = job.Tags
	}
	if job.Privacy != nil && *job.Privacy != "" {
		md.Privacy = *job.Privacy
	}
	if md.Privacy == "" {
		md.Privacy = PrivacyPrivate
	}
	return md
}

// PublishJobAudit is an append-only record of a status change.
type PublishJobAudit struct {
	JobID      string    `json:"job_id" bson:"job_id"`
	FromStatus JobStatus `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus   JobStatus `json:"to_status" bson:"to_status"`
	Message    string    `json:"message,omitempty" bson:"message,omitempty"`
	RetryCount int       `json:"retry_count" bson:"retry_count"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type JobEventType string

const (
	JobEventCreated   JobEventType = "job.created"
	JobEventStarted   JobEventType = "job.started"
	JobEventCompleted JobEventType = "job.completed"
	JobEventRetrying  JobEventType = "job.retrying"
	JobEventFailed    JobEventType = "job.failed"
	JobEventCancelled JobEventType = "job.cancelled"
	JobEventRequeued  JobEventType = "job.requeued"
)

// JobEvent is broadcast to subscribers whenever a job changes state.
type JobEvent struct {
	Type             JobEventType `json:"type"`
	JobID            string       `json:"job_id"`
	VideoID          string       `json:"video_id"`
	UserID           string       `json:"user_id"`
	Platform         Platform     `json:"platform,omitempty"`
	Status           JobStatus    `json:"status"`
	RetryCount       int          `json:"retry_count"`
	PlatformVideoURL *string      `json:"platform_video_url,omitempty"`
	Error            *string      `json:"error,omitempty"`
	OccurredAt       time.Time    `json:"occurred_at"`
}

// NewJobEvent builds an event snapshot from the job's current state.
func NewJobEvent(t JobEventType, job *PublishJob, platform Platform, at time.Time) JobEvent {
	return JobEvent{
		Type:             t,
		JobID:            job.ID,
		VideoID:          job.VideoID,
		UserID:           job.CreatedByID,
		Platform:         platform,
		Status:           job.Status,
		RetryCount:       job.RetryCount,
		PlatformVideoURL: job.PlatformVideoURL,
		Error:            job.ErrorMessage,
		OccurredAt:       at,
	}
}
