package dto

import "video-publisher/domain/model"

type CreateVideoRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  *string  `json:"description"`
	Tags         []string `json:"tags"`
	Privacy      string   `json:"privacy"`
	S3Key        string   `json:"s3_key" binding:"required"`
	S3Bucket     string   `json:"s3_bucket"`
	FileName     string   `json:"file_name"`
	MimeType     string   `json:"mime_type"`
	Duration     *float64 `json:"duration"`
	ThumbnailURL *string  `json:"thumbnail_url"`
}

// UpdateVideoRequest only touches fields that are present.
type UpdateVideoRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Tags         *[]string `json:"tags"`
	Privacy      *string   `json:"privacy"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Duration     *float64  `json:"duration"`
}

type VideoFilter struct {
	Pagination
	UserID        string         `form:"-"`
	Privacy       *model.Privacy `form:"-"`
	TitleContains string         `form:"q"`
	OrderBy       string         `form:"order_by"`
	Desc          bool           `form:"desc"`
}

var videoOrderColumns = map[string]string{
	"":           "created_at",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"file_size":  "file_size",
}

// OrderColumn maps the requested sort key to a column name, falling back to created_at.
func (f VideoFilter) OrderColumn() string {
	if col, ok := videoOrderColumns[f.OrderBy]; ok {
		return col
	}
	return "created_at"
}

type DownloadURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}
