package filecsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"video-publisher/domain/model"
	"video-publisher/infrastructure/logger"
)

var jobHeader = []string{
	"id", "video_id", "platform_connection_id", "created_by_id", "status",
	"retry_count", "is_update", "scheduled_for", "completed_at", "platform_video_url", "error_message", "created_at",
}

// NewFile creates (or truncates) path for writing.
func NewFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while open file")
		return nil, err
	}

	return file, nil
}

// WriteJobs writes one header row and one row per job.
func WriteJobs(w io.Writer, jobs []*model.PublishJob) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(jobHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, j := range jobs {
		record := []string{
			j.ID,
			j.VideoID,
			j.PlatformConnectionID,
			j.CreatedByID,
			string(j.Status),
			strconv.Itoa(j.RetryCount),
			strconv.FormatBool(j.IsUpdate),
			formatTime(j.ScheduledFor),
			formatTime(j.CompletedAt),
			deref(j.PlatformVideoURL),
			deref(j.ErrorMessage),
			j.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// ExportJobs writes jobs to a CSV file at path.
func ExportJobs(path string, jobs []*model.PublishJob) error {
	file, err := NewFile(path)
	if err != nil {
		return err
	}
	if err := WriteJobs(file, jobs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
