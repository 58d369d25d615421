package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/utils"

	"github.com/lib/pq"
)

const videoColumns = `id, user_id, title, description, tags, privacy, s3_key, s3_bucket, file_name, file_size, mime_type, duration, thumbnail_url, created_at, updated_at`

type VideoRepository struct{ db DBTX }

func NewVideoRepository(db DBTX) *VideoRepository { return &VideoRepository{db: db} }

func (r *VideoRepository) WithTx(tx *sql.Tx) *VideoRepository { return &VideoRepository{db: tx} }

func scanVideo(row rowScanner) (*model.Video, error) {
	v := &model.Video{}
	var description, thumbnail sql.NullString
	var duration sql.NullFloat64
	var tags []string
	if err := row.Scan(&v.ID, &v.UserID, &v.Title, &description, pq.Array(&tags), &v.Privacy, &v.S3Key, &v.S3Bucket,
		&v.FileName, &v.FileSize, &v.MimeType, &duration, &thumbnail, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	v.Tags = tags
	v.Description = nullStringPtr(description)
	v.ThumbnailURL = nullStringPtr(thumbnail)
	v.Duration = nullFloatPtr(duration)
	return v, nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get video", err)
	}
	return v, nil
}

func videoWhere(filter dto.VideoFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.UserID != "" {
		w.add("user_id = %s", filter.UserID)
	}
	if filter.Privacy != nil {
		w.add("privacy = %s", string(*filter.Privacy))
	}
	if filter.TitleContains != "" {
		w.add("title ILIKE %s", "%"+filter.TitleContains+"%")
	}
	return w
}

func (r *VideoRepository) List(ctx context.Context, filter dto.VideoFilter) ([]*model.Video, error) {
	filter.Normalize()
	w := videoWhere(filter)
	dir := "ASC"
	if filter.Desc || filter.OrderBy == "" {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM videos%s ORDER BY %s %s, id LIMIT %s OFFSET %s`,
		videoColumns, w.sql(), filter.OrderColumn(), dir, w.placeholder(filter.Limit), w.placeholder(filter.Offset))
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, mapError("list videos", err)
	}
	defer rows.Close()
	list := []*model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, mapError("scan video", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *VideoRepository) Count(ctx context.Context, filter dto.VideoFilter) (int64, error) {
	w := videoWhere(filter)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, mapError("count videos", err)
	}
	return n, nil
}

func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	if v.ID == "" {
		v.ID = utils.NewID()
	}
	if v.Privacy == "" {
		v.Privacy = model.PrivacyPrivate
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	now := utils.GetCurrentTime()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `INSERT INTO videos (`+videoColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)`,
		v.ID, v.UserID, v.Title, v.Description, pq.Array(v.Tags), string(v.Privacy), v.S3Key, v.S3Bucket,
		v.FileName, v.FileSize, v.MimeType, v.Duration, v.ThumbnailURL, now)
	return mapError("create video", err)
}

func (r *VideoRepository) Update(ctx context.Context, v *model.Video) error {
	v.UpdatedAt = utils.GetCurrentTime()
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET title=$1, description=$2, tags=$3, privacy=$4, duration=$5, thumbnail_url=$6, updated_at=$7 WHERE id=$8`,
		v.Title, v.Description, pq.Array(v.Tags), string(v.Privacy), v.Duration, v.ThumbnailURL, v.UpdatedAt, v.ID)
	if err != nil {
		return mapError("update video", err)
	}
	return expectOne("update video", res, model.ErrNotFound)
}

// Delete removes the video; its publish jobs go with it through ON DELETE CASCADE.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return mapError("delete video", err)
	}
	return expectOne("delete video", res, model.ErrNotFound)
}

func (r *VideoRepository) Aggregate(ctx context.Context, userID string) (*model.VideoAggregate, error) {
	agg := &model.VideoAggregate{}
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(file_size), 0), COALESCE(AVG(file_size), 0), COALESCE(SUM(duration), 0) FROM videos WHERE user_id=$1`, userID).
		Scan(&agg.Count, &agg.TotalFileSize, &agg.AvgFileSize, &agg.TotalDuration)
	if err != nil {
		return nil, mapError("aggregate videos", err)
	}
	return agg, nil
}

var _ repository.IVideo = (*VideoRepository)(nil)
