package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/utils"

	"github.com/lib/pq"
)

const jobColumns = `id, video_id, platform_connection_id, created_by_id, status, title, description, tags, privacy, scheduled_for, started_at, completed_at, platform_video_id, platform_video_url, error_message, retry_count, is_update, created_at, updated_at`

// PublishJobRepository is the persisted publish queue. Every status change is a conditional
// UPDATE on the expected current status so concurrent writers cannot both win.
type PublishJobRepository struct{ db DBTX }

func NewPublishJobRepository(db DBTX) *PublishJobRepository { return &PublishJobRepository{db: db} }

func (r *PublishJobRepository) WithTx(tx *sql.Tx) *PublishJobRepository {
	return &PublishJobRepository{db: tx}
}

func scanJob(row rowScanner) (*model.PublishJob, error) {
	j := &model.PublishJob{}
	var title, description, privacy, platformVideoID, platformVideoURL, errMsg sql.NullString
	var scheduledFor, startedAt, completedAt sql.NullTime
	var tags []string
	if err := row.Scan(&j.ID, &j.VideoID, &j.PlatformConnectionID, &j.CreatedByID, &j.Status, &title, &description,
		pq.Array(&tags), &privacy, &scheduledFor, &startedAt, &completedAt, &platformVideoID, &platformVideoURL,
		&errMsg, &j.RetryCount, &j.IsUpdate, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Title = nullStringPtr(title)
	j.Description = nullStringPtr(description)
	j.Tags = tags
	if privacy.Valid {
		p := model.Privacy(privacy.String)
		j.Privacy = &p
	}
	j.ScheduledFor = nullTimePtr(scheduledFor)
	j.StartedAt = nullTimePtr(startedAt)
	j.CompletedAt = nullTimePtr(completedAt)
	j.PlatformVideoID = nullStringPtr(platformVideoID)
	j.PlatformVideoURL = nullStringPtr(platformVideoURL)
	j.ErrorMessage = nullStringPtr(errMsg)
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*model.PublishJob, error) {
	defer rows.Close()
	list := []*model.PublishJob{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func (r *PublishJobRepository) Create(ctx context.Context, j *model.PublishJob) error {
	if j.ID == "" {
		j.ID = utils.NewID()
	}
	if j.Status == "" {
		j.Status = model.JobStatusPending
	}
	now := utils.GetCurrentTime()
	j.CreatedAt, j.UpdatedAt = now, now
	var tags interface{}
	if j.Tags != nil {
		tags = pq.Array(j.Tags)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO publish_jobs (`+jobColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)`,
		j.ID, j.VideoID, j.PlatformConnectionID, j.CreatedByID, string(j.Status), j.Title, j.Description, tags, j.Privacy,
		j.ScheduledFor, j.StartedAt, j.CompletedAt, j.PlatformVideoID, j.PlatformVideoURL, j.ErrorMessage, j.RetryCount, j.IsUpdate, now)
	return mapError("create publish job", err)
}

func (r *PublishJobRepository) CreateBatch(ctx context.Context, jobs []*model.PublishJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return runInTx(ctx, r.db, func(q DBTX) error {
		txRepo := &PublishJobRepository{db: q}
		for _, j := range jobs {
			if err := txRepo.Create(ctx, j); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PublishJobRepository) GetByID(ctx context.Context, id string) (*model.PublishJob, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM publish_jobs WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get publish job", err)
	}
	return j, nil
}

func jobWhere(filter dto.PublishJobFilter) *whereBuilder {
	w := &whereBuilder{}
	if len(filter.IDs) > 0 {
		w.add("id = ANY(%s)", pq.Array(filter.IDs))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(%s)", pq.Array(statuses))
	}
	if filter.VideoID != "" {
		w.add("video_id = %s", filter.VideoID)
	}
	if filter.PlatformConnectionID != "" {
		w.add("platform_connection_id = %s", filter.PlatformConnectionID)
	}
	if filter.CreatedByID != "" {
		w.add("created_by_id = %s", filter.CreatedByID)
	}
	if filter.ScheduledFrom != nil {
		w.add("scheduled_for >= %s", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		w.add("scheduled_for <= %s", *filter.ScheduledTo)
	}
	return w
}

func (r *PublishJobRepository) List(ctx context.Context, filter dto.PublishJobFilter) ([]*model.PublishJob, error) {
	filter.Normalize()
	w := jobWhere(filter)
	dir := "ASC"
	if filter.Desc {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM publish_jobs%s ORDER BY created_at %s, id LIMIT %s OFFSET %s`,
		jobColumns, w.sql(), dir, w.placeholder(filter.Limit), w.placeholder(filter.Offset))
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, mapError("list publish jobs", err)
	}
	list, err := scanJobs(rows)
	if err != nil {
		return nil, mapError("scan publish jobs", err)
	}
	return list, nil
}

func (r *PublishJobRepository) Count(ctx context.Context, filter dto.PublishJobFilter) (int64, error) {
	w := jobWhere(filter)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM publish_jobs`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, mapError("count publish jobs", err)
	}
	return n, nil
}

func (r *PublishJobRepository) CountByStatus(ctx context.Context, filter dto.PublishJobFilter) (map[model.JobStatus]int64, error) {
	w := jobWhere(filter)
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM publish_jobs`+w.sql()+` GROUP BY status`, w.args...)
	if err != nil {
		return nil, mapError("count publish jobs by status", err)
	}
	defer rows.Close()
	out := make(map[model.JobStatus]int64, len(model.AllJobStatuses))
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError("scan publish job status count", err)
		}
		out[model.JobStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *PublishJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.PublishJob, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := `UPDATE publish_jobs SET status='PROCESSING', started_at=$1, updated_at=$1
		  WHERE id IN (
			SELECT id FROM publish_jobs
			WHERE status='PENDING' AND (scheduled_for IS NULL OR scheduled_for <= $1)
			ORDER BY COALESCE(scheduled_for, created_at)
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		  )
		  RETURNING ` + jobColumns
	rows, err := r.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, mapError("claim publish jobs", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, mapError("scan claimed publish jobs", err)
	}
	sort.SliceStable(jobs, func(a, b int) bool { return dueAt(jobs[a]).Before(dueAt(jobs[b])) })
	return jobs, nil
}

func dueAt(j *model.PublishJob) time.Time {
	if j.ScheduledFor != nil {
		return *j.ScheduledFor
	}
	return j.CreatedAt
}

func (r *PublishJobRepository) MarkCompleted(ctx context.Context, id, platformVideoID, platformVideoURL string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='COMPLETED', platform_video_id=$1, platform_video_url=$2, error_message=NULL, completed_at=$3, updated_at=$3 WHERE id=$4 AND status='PROCESSING'`,
		platformVideoID, platformVideoURL, at, id)
	return r.checkTransition(ctx, "complete publish job", id, res, err)
}

func (r *PublishJobRepository) MarkFailed(ctx context.Context, id, errMsg string, retryAt *time.Time, at time.Time) error {
	if retryAt != nil {
		res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='PENDING', retry_count=retry_count+1, error_message=$1, scheduled_for=$2, started_at=NULL, updated_at=$3 WHERE id=$4 AND status='PROCESSING'`,
			errMsg, *retryAt, at, id)
		return r.checkTransition(ctx, "reschedule publish job", id, res, err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='FAILED', retry_count=retry_count+1, error_message=$1, completed_at=$2, updated_at=$2 WHERE id=$3 AND status='PROCESSING'`,
		errMsg, at, id)
	return r.checkTransition(ctx, "fail publish job", id, res, err)
}

func (r *PublishJobRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='CANCELLED', completed_at=$1, updated_at=$1 WHERE id=$2 AND status='PENDING'`, at, id)
	return r.checkTransition(ctx, "cancel publish job", id, res, err)
}

// Retry puts a FAILED job back in the queue. retry_count is kept.
func (r *PublishJobRepository) Retry(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='PENDING', error_message=NULL, started_at=NULL, completed_at=NULL, scheduled_for=NULL, updated_at=$1 WHERE id=$2 AND status='FAILED'`, at, id)
	return r.checkTransition(ctx, "retry publish job", id, res, err)
}

func (r *PublishJobRepository) Release(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET status='PENDING', started_at=NULL, updated_at=$1 WHERE id=$2 AND status='PROCESSING'`, at, id)
	return r.checkTransition(ctx, "release publish job", id, res, err)
}

func (r *PublishJobRepository) RequeueStale(ctx context.Context, startedBefore, at time.Time) ([]*model.PublishJob, error) {
	rows, err := r.db.QueryContext(ctx, `UPDATE publish_jobs SET status='PENDING', started_at=NULL, updated_at=$1 WHERE status='PROCESSING' AND started_at < $2 RETURNING `+jobColumns, at, startedBefore)
	if err != nil {
		return nil, mapError("requeue stale publish jobs", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, mapError("scan requeued publish jobs", err)
	}
	return jobs, nil
}

func (r *PublishJobRepository) FindLatestCompleted(ctx context.Context, videoID, platformConnectionID string) (*model.PublishJob, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM publish_jobs WHERE video_id=$1 AND platform_connection_id=$2 AND status='COMPLETED' AND platform_video_id IS NOT NULL ORDER BY completed_at DESC NULLS LAST, created_at DESC LIMIT 1`,
		videoID, platformConnectionID))
	if err != nil {
		return nil, mapError("find latest completed publish job", err)
	}
	return j, nil
}

// checkTransition reports ErrNotFound for a missing job and ErrInvalidTransition when the
// job exists but was not in the expected status.
func (r *PublishJobRepository) checkTransition(ctx context.Context, op, id string, res sql.Result, err error) error {
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n > 0 {
		return nil
	}
	var status string
	if err := r.db.QueryRowContext(ctx, `SELECT status FROM publish_jobs WHERE id=$1`, id).Scan(&status); err != nil {
		return mapError(op, err)
	}
	return fmt.Errorf("%s: %w: job is %s", op, model.ErrInvalidTransition, status)
}

var _ repository.IPublishJob = (*PublishJobRepository)(nil)
