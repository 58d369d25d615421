package rabbitmq

import (
	"context"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobEventPublisher publishes job events to a durable topic exchange with routing
// key "<event type>.<platform>", e.g. "job.completed.YOUTUBE".
type JobEventPublisher struct {
	exchange string
	pool     *channelPool
}

func NewJobEventPublisher(conn *amqp.Connection, exchange string) *JobEventPublisher {
	if conn == nil {
		return &JobEventPublisher{exchange: exchange}
	}
	return newJobEventPublisher(func() (amqpChannel, error) { return conn.Channel() }, exchange)
}

func newJobEventPublisher(open func() (amqpChannel, error), exchange string) *JobEventPublisher {
	return &JobEventPublisher{
		exchange: exchange,
		pool: &channelPool{
			open: open,
			declare: func(ch amqpChannel) error {
				return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
			},
		},
	}
}

func (p *JobEventPublisher) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	if p.pool == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := publishing(evt)
	if err != nil {
		return err
	}
	p.pool.mu.Lock()
	defer p.pool.mu.Unlock()
	ch, err := p.pool.get()
	if err != nil {
		return err
	}
	if err := ch.Publish(p.exchange, routingKey(evt), false, false, msg); err != nil {
		p.pool.reset()
		return err
	}
	return nil
}

func (p *JobEventPublisher) Close() {
	if p.pool == nil {
		return
	}
	p.pool.mu.Lock()
	defer p.pool.mu.Unlock()
	p.pool.reset()
}

var _ repository.IJobEventPublisher = (*JobEventPublisher)(nil)
