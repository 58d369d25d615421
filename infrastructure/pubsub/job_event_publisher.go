package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// JobEventPublisher sends job events to a Pub/Sub topic, creating it on first use.
type JobEventPublisher struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewJobEventPublisher(client *pubsub.Client, topicID string) *JobEventPublisher {
	return &JobEventPublisher{client: client, topicID: topicID}
}

func (p *JobEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicID); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *JobEventPublisher) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	if p.client == nil {
		return nil
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     string(evt.Type),
			"platform": string(evt.Platform),
		},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("job_id", evt.JobID).Debug("Job event published")
	return nil
}

// Close flushes pending messages.
func (p *JobEventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}

var _ repository.IJobEventPublisher = (*JobEventPublisher)(nil)
