package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends one JSON message to a queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, message any) error
}

// Producer opens a channel per message. An amqp channel must not be shared
// between goroutines; the connection may be.
type Producer struct {
	conn *amqp.Connection
}

var _ Publisher = (*Producer)(nil)

func NewProducer(conn *amqp.Connection) *Producer {
	return &Producer{conn: conn}
}

func (p *Producer) Publish(ctx context.Context, queueName string, message any) error {
	ch, err := NewChannel(p.conn)
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	return SendImmediateMessage(ctx, ch, queueName, message)
}

func SendImmediateMessage(ctx context.Context, ch *amqp.Channel, queueName string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to queue %s: %w", queueName, err)
	}

	return nil
}
