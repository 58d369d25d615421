package events

import (
	"context"
	"time"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

const sinkTimeout = 10 * time.Second

type sink struct {
	name      string
	publisher repository.IJobEventPublisher
}

// Fanout delivers every job event to all registered sinks in parallel. Sink errors are
// logged and swallowed so that a broker outage never fails a publish job.
type Fanout struct {
	sinks []sink
}

func NewFanout() *Fanout { return &Fanout{} }

// Add registers a sink. Nil publishers are ignored.
func (f *Fanout) Add(name string, p repository.IJobEventPublisher) *Fanout {
	if p != nil {
		f.sinks = append(f.sinks, sink{name: name, publisher: p})
	}
	return f
}

func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.name
	}
	return names
}

func (f *Fanout) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	var g errgroup.Group
	for _, s := range f.sinks {
		s := s
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
			defer cancel()
			if err := s.publisher.PublishJobEvent(sctx, evt); err != nil {
				logger.GetLogger().
					WithField("sink", s.name).
					WithField("job_id", evt.JobID).
					WithField("event", evt.Type).
					WithField("error", err).
					Warn("job event delivery failed")
			}
			return nil
		})
	}
	return g.Wait()
}

var _ repository.IJobEventPublisher = (*Fanout)(nil)
