package servicebus

import (
	"context"
	"encoding/json"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

type JobEventPublisher struct {
	client *azservicebus.Client
	queue  string
}

func NewJobEventPublisher(client *azservicebus.Client, queue string) *JobEventPublisher {
	return &JobEventPublisher{client: client, queue: queue}
}

func newMessage(evt model.JobEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := string(evt.Type)
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]interface{}{
			"job_id":   evt.JobID,
			"platform": string(evt.Platform),
		},
	}, nil
}

func (p *JobEventPublisher) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	if p.client == nil {
		return nil
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	msg, err := newMessage(evt)
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

var _ repository.IJobEventPublisher = (*JobEventPublisher)(nil)
