package model

import (
	"fmt"
	"strings"
	"time"
)

// Privacy is the visibility requested on the target platform.
type Privacy string

const (
	PrivacyPublic   Privacy = "PUBLIC"
	PrivacyUnlisted Privacy = "UNLISTED"
	PrivacyPrivate  Privacy = "PRIVATE"
)

// ParsePrivacy accepts any casing ("public", "Unlisted") and returns the canonical value.
func ParsePrivacy(s string) (Privacy, error) {
	switch p := Privacy(strings.ToUpper(strings.TrimSpace(s))); p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return p, nil
	}
	return "", fmt.Errorf("%w: invalid privacy setting %q", ErrInvalidInput, s)
}

// Video is a media asset already stored in S3.
type Video struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Tags         []string  `json:"tags"`
	Privacy      Privacy   `json:"privacy"`
	S3Key        string    `json:"s3_key"`
	S3Bucket     string    `json:"s3_bucket"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	Duration     *float64  `json:"duration,omitempty"` // seconds
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoAggregate summarises a user's library.
type VideoAggregate struct {
	Count         int64   `json:"count"`
	TotalFileSize int64   `json:"total_file_size"`
	AvgFileSize   float64 `json:"avg_file_size"`
	TotalDuration float64 `json:"total_duration"`
}
