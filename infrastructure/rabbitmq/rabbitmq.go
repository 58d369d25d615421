package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"video-publisher/domain/model"
	"video-publisher/infrastructure/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewConnection dials url, retrying a few times while the broker starts up.
// It returns (nil, nil) when url is empty.
func NewConnection(url string, attempts int, wait time.Duration) (*amqp.Connection, error) {
	if url == "" {
		return nil, nil
	}
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(url); err == nil {
			return conn, nil
		}
		logger.GetLogger().WithField("attempt", i+1).WithField("error", err).Warn("RabbitMQ not reachable, retrying")
		if i < attempts-1 {
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("rabbitmq dial: %w", err)
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

func routingKey(evt model.JobEvent) string {
	return fmt.Sprintf("%s.%s", evt.Type, evt.Platform)
}

func publishing(evt model.JobEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.JobID + ":" + string(evt.Type),
		Timestamp:    evt.OccurredAt,
		Type:         string(evt.Type),
		Body:         body,
	}, nil
}

// channelPool lazily opens one channel and reopens it after a failure.
type channelPool struct {
	mu      sync.Mutex
	open    func() (amqpChannel, error)
	ch      amqpChannel
	declare func(amqpChannel) error
}

func (p *channelPool) get() (amqpChannel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	if p.declare != nil {
		if err := p.declare(ch); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}
	p.ch = ch
	return ch, nil
}

func (p *channelPool) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}
