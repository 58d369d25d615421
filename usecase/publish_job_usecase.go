package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

const (
	maxErrorMessageLen = 1000
	// staleAfterMargin keeps StaleAfter above JobTimeout so a running job is never requeued.
	staleAfterMargin = 5 * time.Minute
)

// Outcome labels reported to IJobMetrics.
const (
	OutcomeCompleted = "completed"
	OutcomeRetrying  = "retrying"
	OutcomeFailed    = "failed"
	OutcomeReleased  = "released"
)

// IJobMetrics is satisfied by *metrics.Metrics.
type IJobMetrics interface {
	ObserveProcessed(platform, outcome string, d time.Duration)
	AddClaimed(n int)
	AddRequeued(n int)
}

type WorkerOptions struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	StaleAfter  time.Duration
	JobTimeout  time.Duration
}

func (o *WorkerOptions) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 30 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Minute
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 30 * time.Minute
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 20 * time.Minute
	}
	if floor := o.JobTimeout + staleAfterMargin; o.StaleAfter < floor {
		o.StaleAfter = floor
	}
}

// PublishJobDeps groups the collaborators of the publish orchestrator.
// Audit, Events and Metrics are optional.
type PublishJobDeps struct {
	Jobs        repository.IPublishJob
	Audit       repository.IPublishJobAudit
	Videos      repository.IVideo
	Connections repository.IPlatformConnection
	Publishers  repository.IPublisherRegistry
	Events      repository.IJobEventPublisher
	Metrics     IJobMetrics
	Now         func() time.Time
}

// IPublishJobUsecase manages publish jobs. An empty userID on Get, Cancel, Retry and History
// skips the ownership check and is reserved for operator tooling.
type IPublishJobUsecase interface {
	Enqueue(ctx context.Context, userID string, req dto.EnqueuePublishJobRequest) ([]*model.PublishJob, error)
	Get(ctx context.Context, userID, id string) (*model.PublishJob, error)
	List(ctx context.Context, filter dto.PublishJobFilter) (*dto.Page, error)
	Stats(ctx context.Context, userID string) (*dto.JobStats, error)
	History(ctx context.Context, userID, id string) ([]*model.PublishJobAudit, error)
	Cancel(ctx context.Context, userID, id string) (*model.PublishJob, error)
	Retry(ctx context.Context, userID, id string) (*model.PublishJob, error)
	ProcessDue(ctx context.Context, batch int) (*dto.ProcessResult, error)
	RequeueStale(ctx context.Context) (int, error)
}

type publishJobUsecase struct {
	deps PublishJobDeps
	opts WorkerOptions
}

func NewPublishJobUsecase(deps PublishJobDeps, opts WorkerOptions) IPublishJobUsecase {
	opts.normalize()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &publishJobUsecase{deps: deps, opts: opts}
}

func (u *publishJobUsecase) Enqueue(ctx context.Context, userID string, req dto.EnqueuePublishJobRequest) ([]*model.PublishJob, error) {
	if req.VideoID == "" {
		return nil, fmt.Errorf("%w: video_id is required", model.ErrInvalidInput)
	}
	connIDs := dedupe(req.PlatformConnectionIDs)
	if len(connIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one platform connection is required", model.ErrInvalidInput)
	}

	video, err := u.deps.Videos.GetByID(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, fmt.Errorf("video %s: %w", video.ID, model.ErrForbidden)
	}

	var privacy *model.Privacy
	if req.Privacy != nil && *req.Privacy != "" {
		p, err := model.ParsePrivacy(*req.Privacy)
		if err != nil {
			return nil, err
		}
		privacy = &p
	}
	var title *string
	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t != "" {
			title = &t
		}
	}
	var scheduledFor *time.Time
	if req.ScheduledFor != nil {
		at := req.ScheduledFor.UTC()
		scheduledFor = &at
	}

	conns := make(map[string]*model.PlatformConnection, len(connIDs))
	jobs := make([]*model.PublishJob, 0, len(connIDs))
	for _, id := range connIDs {
		conn, err := u.deps.Connections.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("platform connection %s: %w: %w", id, model.ErrInvalidInput, err)
			}
			return nil, err
		}
		if conn.UserID != userID {
			return nil, fmt.Errorf("platform connection %s: %w", id, model.ErrForbidden)
		}
		if !conn.IsActive {
			return nil, fmt.Errorf("%w: platform connection %s is inactive", model.ErrInvalidInput, id)
		}
		conns[id] = conn
		jobs = append(jobs, &model.PublishJob{
			VideoID:              video.ID,
			PlatformConnectionID: conn.ID,
			CreatedByID:          userID,
			Status:               model.JobStatusPending,
			Title:                title,
			Description:          req.Description,
			Tags:                 req.Tags,
			Privacy:              privacy,
			ScheduledFor:         scheduledFor,
			IsUpdate:             req.IsUpdate,
		})
	}

	if err := u.deps.Jobs.CreateBatch(ctx, jobs); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		u.record(ctx, job, "", "enqueued")
		u.emit(ctx, model.JobEventCreated, job, conns[job.PlatformConnectionID].Platform)
	}
	logger.GetLogger().WithField("video_id", video.ID).WithField("jobs", len(jobs)).Info("Publish jobs enqueued")
	return jobs, nil
}

func (u *publishJobUsecase) Get(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	job, err := u.deps.Jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && job.CreatedByID != userID {
		return nil, model.ErrForbidden
	}
	return job, nil
}

func (u *publishJobUsecase) List(ctx context.Context, filter dto.PublishJobFilter) (*dto.Page, error) {
	filter.Normalize()
	jobs, err := u.deps.Jobs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := u.deps.Jobs.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.Page{Items: jobs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (u *publishJobUsecase) Stats(ctx context.Context, userID string) (*dto.JobStats, error) {
	counts, err := u.deps.Jobs.CountByStatus(ctx, dto.PublishJobFilter{CreatedByID: userID})
	if err != nil {
		return nil, err
	}
	stats := &dto.JobStats{ByStatus: make(map[model.JobStatus]int64, len(model.AllJobStatuses))}
	for _, st := range model.AllJobStatuses {
		stats.ByStatus[st] = counts[st]
		stats.Total += counts[st]
	}
	return stats, nil
}

func (u *publishJobUsecase) History(ctx context.Context, userID, id string) ([]*model.PublishJobAudit, error) {
	if _, err := u.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if u.deps.Audit == nil {
		return []*model.PublishJobAudit{}, nil
	}
	return u.deps.Audit.ListByJob(ctx, id)
}

func (u *publishJobUsecase) Cancel(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	job, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(job.Status, model.JobStatusCancelled) {
		return nil, fmt.Errorf("cancel %s job: %w", job.Status, model.ErrInvalidTransition)
	}
	if err := u.deps.Jobs.Cancel(ctx, id, u.deps.Now()); err != nil {
		return nil, err
	}
	return u.afterManualTransition(ctx, job, model.JobEventCancelled, "cancelled by user")
}

func (u *publishJobUsecase) Retry(ctx context.Context, userID, id string) (*model.PublishJob, error) {
	job, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusFailed {
		return nil, fmt.Errorf("retry %s job: %w", job.Status, model.ErrInvalidTransition)
	}
	if err := u.deps.Jobs.Retry(ctx, id, u.deps.Now()); err != nil {
		return nil, err
	}
	return u.afterManualTransition(ctx, job, model.JobEventRequeued, "manual retry")
}

func (u *publishJobUsecase) afterManualTransition(ctx context.Context, before *model.PublishJob, evt model.JobEventType, msg string) (*model.PublishJob, error) {
	job, err := u.deps.Jobs.GetByID(ctx, before.ID)
	if err != nil {
		return nil, err
	}
	u.record(ctx, job, before.Status, msg)
	u.emit(ctx, evt, job, u.platformOf(ctx, job))
	return job, nil
}

// ProcessDue claims up to batch due jobs and publishes them with bounded concurrency.
// Individual job failures are recorded on the job and never returned.
func (u *publishJobUsecase) ProcessDue(ctx context.Context, batch int) (*dto.ProcessResult, error) {
	if batch <= 0 {
		batch = u.opts.BatchSize
	}
	jobs, err := u.deps.Jobs.ClaimDue(ctx, u.deps.Now(), batch)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	res := &dto.ProcessResult{Claimed: len(jobs)}
	if len(jobs) == 0 {
		return res, nil
	}
	if u.deps.Metrics != nil {
		u.deps.Metrics.AddClaimed(len(jobs))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			outcome := u.processJob(gctx, job)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeCompleted:
				res.Completed++
			case OutcomeRetrying:
				res.Retrying++
			case OutcomeReleased:
				res.Released++
			default:
				res.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.GetLogger().WithFields(map[string]interface{}{
		"claimed":   res.Claimed,
		"completed": res.Completed,
		"retrying":  res.Retrying,
		"failed":    res.Failed,
		"released":  res.Released,
	}).Info("Publish batch processed")
	return res, nil
}

func (u *publishJobUsecase) processJob(ctx context.Context, job *model.PublishJob) string {
	start := time.Now()
	log := logger.GetLogger().WithField("job_id", job.ID)

	u.record(ctx, job, model.JobStatusPending, "claimed")

	jobCtx, cancel := context.WithTimeout(ctx, u.opts.JobTimeout)
	defer cancel()

	platform, result, err := u.publish(jobCtx, job)
	label := string(platform)
	if label == "" {
		label = "unknown"
	}
	// Persisting the outcome must not be cut short by the per-job timeout.
	persistCtx := context.WithoutCancel(ctx)
	now := u.deps.Now()

	if err == nil {
		if mErr := u.deps.Jobs.MarkCompleted(persistCtx, job.ID, result.PlatformVideoID, result.URL, now); mErr != nil {
			log.WithField("error", mErr).Error("Failed to mark job completed")
			u.observe(label, OutcomeFailed, start)
			return OutcomeFailed
		}
		job.Status = model.JobStatusCompleted
		job.CompletedAt = &now
		job.PlatformVideoID = &result.PlatformVideoID
		job.PlatformVideoURL = &result.URL
		job.ErrorMessage = nil
		u.record(persistCtx, job, model.JobStatusProcessing, "published")
		u.emit(persistCtx, model.JobEventCompleted, job, platform)
		u.observe(label, OutcomeCompleted, start)
		log.WithField("url", result.URL).Info("Publish job completed")
		return OutcomeCompleted
	}

	// Shutdown interrupted the attempt; it was not the platform's fault.
	if ctx.Err() != nil {
		return u.release(persistCtx, job, platform, label, start, err)
	}

	msg := truncate(err.Error(), maxErrorMessageLen)
	outcome, evt := OutcomeFailed, model.JobEventFailed
	var retryAt *time.Time
	if !errors.Is(err, model.ErrPermanent) && job.RetryCount+1 < u.opts.MaxRetries {
		at := now.Add(model.Backoff(job.RetryCount, u.opts.BaseBackoff, u.opts.MaxBackoff))
		retryAt = &at
		outcome, evt = OutcomeRetrying, model.JobEventRetrying
	}
	if mErr := u.deps.Jobs.MarkFailed(persistCtx, job.ID, msg, retryAt, now); mErr != nil {
		log.WithField("error", mErr).Error("Failed to record job failure")
		u.observe(label, OutcomeFailed, start)
		return OutcomeFailed
	}
	job.RetryCount++
	job.ErrorMessage = &msg
	if retryAt != nil {
		job.Status = model.JobStatusPending
		job.ScheduledFor = retryAt
	} else {
		job.Status = model.JobStatusFailed
	}
	u.record(persistCtx, job, model.JobStatusProcessing, msg)
	u.emit(persistCtx, evt, job, platform)
	u.observe(label, outcome, start)
	log.WithField("error", err).WithField("outcome", outcome).Warn("Publish job attempt failed")
	return outcome
}

func (u *publishJobUsecase) release(ctx context.Context, job *model.PublishJob, platform model.Platform, label string, start time.Time, cause error) string {
	log := logger.GetLogger().WithField("job_id", job.ID).WithField("error", cause)
	if err := u.deps.Jobs.Release(ctx, job.ID, u.deps.Now()); err != nil {
		// RequeueStale picks it up later.
		log.WithField("release_error", err).Error("Failed to release interrupted job")
		u.observe(label, OutcomeReleased, start)
		return OutcomeReleased
	}
	job.Status = model.JobStatusPending
	job.StartedAt = nil
	u.record(ctx, job, model.JobStatusProcessing, "released on shutdown")
	u.emit(ctx, model.JobEventRequeued, job, platform)
	u.observe(label, OutcomeReleased, start)
	log.Warn("Publish job interrupted by shutdown, released")
	return OutcomeReleased
}

// publish resolves everything one job needs and calls the platform publisher.
func (u *publishJobUsecase) publish(ctx context.Context, job *model.PublishJob) (model.Platform, *repository.PublishResult, error) {
	video, err := u.deps.Videos.GetByID(ctx, job.VideoID)
	if err != nil {
		return "", nil, permanentIfMissing("video", err)
	}
	conn, err := u.deps.Connections.GetByID(ctx, job.PlatformConnectionID)
	if err != nil {
		return "", nil, permanentIfMissing("platform connection", err)
	}
	u.emit(ctx, model.JobEventStarted, job, conn.Platform)
	if !conn.IsActive {
		return conn.Platform, nil, fmt.Errorf("%w: platform connection %s is inactive", model.ErrPermanent, conn.ID)
	}

	req := repository.PublishRequest{
		Job:        job,
		Video:      video,
		Connection: conn,
		Metadata:   model.ResolvePublishMetadata(job, video),
	}
	if job.IsUpdate {
		prev, err := u.deps.Jobs.FindLatestCompleted(ctx, video.ID, conn.ID)
		if err != nil {
			return conn.Platform, nil, permanentIfMissing("published video to update", err)
		}
		if prev.PlatformVideoID == nil || *prev.PlatformVideoID == "" {
			return conn.Platform, nil, fmt.Errorf("%w: previous job %s has no platform video id", model.ErrPermanent, prev.ID)
		}
		req.ExistingPlatformVideoID = *prev.PlatformVideoID
	}

	publisher, err := u.deps.Publishers.Publisher(conn.Platform)
	if err != nil {
		return conn.Platform, nil, err
	}
	result, err := publisher.Publish(ctx, req)
	if result != nil && result.Credentials != nil {
		if cErr := u.deps.Connections.UpdateTokens(context.WithoutCancel(ctx), conn.ID, *result.Credentials); cErr != nil {
			logger.GetLogger().WithField("connection_id", conn.ID).WithField("error", cErr).Error("Failed to persist refreshed credentials")
		}
	}
	if err != nil {
		return conn.Platform, nil, err
	}
	if result == nil {
		return conn.Platform, nil, fmt.Errorf("%s publisher returned no result", conn.Platform)
	}
	return conn.Platform, result, nil
}

func (u *publishJobUsecase) RequeueStale(ctx context.Context) (int, error) {
	now := u.deps.Now()
	jobs, err := u.deps.Jobs.RequeueStale(ctx, now.Add(-u.opts.StaleAfter), now)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}
	if u.deps.Metrics != nil {
		u.deps.Metrics.AddRequeued(len(jobs))
	}
	for _, job := range jobs {
		u.record(ctx, job, model.JobStatusProcessing, "requeued after stale claim")
		u.emit(ctx, model.JobEventRequeued, job, u.platformOf(ctx, job))
	}
	logger.GetLogger().WithField("count", len(jobs)).Warn("Requeued stale publish jobs")
	return len(jobs), nil
}

func (u *publishJobUsecase) platformOf(ctx context.Context, job *model.PublishJob) model.Platform {
	conn, err := u.deps.Connections.GetByID(ctx, job.PlatformConnectionID)
	if err != nil {
		return ""
	}
	return conn.Platform
}

func (u *publishJobUsecase) record(ctx context.Context, job *model.PublishJob, from model.JobStatus, msg string) {
	if u.deps.Audit == nil {
		return
	}
	entry := &model.PublishJobAudit{
		JobID:      job.ID,
		FromStatus: from,
		ToStatus:   job.Status,
		Message:    msg,
		RetryCount: job.RetryCount,
		CreatedAt:  u.deps.Now(),
	}
	if err := u.deps.Audit.Append(ctx, entry); err != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Warn("Failed to append job audit")
	}
}

func (u *publishJobUsecase) emit(ctx context.Context, t model.JobEventType, job *model.PublishJob, platform model.Platform) {
	if u.deps.Events == nil {
		return
	}
	if err := u.deps.Events.PublishJobEvent(ctx, model.NewJobEvent(t, job, platform, u.deps.Now())); err != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Warn("Failed to publish job event")
	}
}

func (u *publishJobUsecase) observe(platform, outcome string, start time.Time) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.ObserveProcessed(platform, outcome, time.Since(start))
	}
}

func permanentIfMissing(what string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", what, model.ErrPermanent, err)
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// truncate returns valid UTF-8 of at most n bytes, cutting on a rune boundary.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
