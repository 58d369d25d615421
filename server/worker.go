package server

import (
	"context"
	"time"

	"video-publisher/infrastructure/logger"
	"video-publisher/usecase"
)

// RunEvery calls fn on every tick until ctx is done.
func RunEvery(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ProcessTick runs one worker batch. Errors are logged so the loop keeps going.
func ProcessTick(jobs usecase.IPublishJobUsecase, batch int) func(ctx context.Context) {
	return func(ctx context.Context) {
		res, err := jobs.ProcessDue(ctx, batch)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Publish worker tick failed")
			return
		}
		if res.Claimed > 0 {
			logger.GetLogger().WithField("claimed", res.Claimed).Debug("Publish worker tick")
		}
	}
}

// RequeueTick returns stale PROCESSING jobs to the queue.
func RequeueTick(jobs usecase.IPublishJobUsecase) func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, err := jobs.RequeueStale(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Stale job requeue failed")
		}
	}
}
