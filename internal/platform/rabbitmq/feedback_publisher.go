package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"plabroom/internal/model"
)

// FeedbackPublisher enqueues accepted feedback for asynchronous
// persistence. The queue is durable and messages are persistent so
// scores survive a broker restart.
type FeedbackPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewFeedbackPublisher(conn *amqp.Connection, queueName string) *FeedbackPublisher {
	return &FeedbackPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *FeedbackPublisher) Publish(ctx context.Context, f model.Feedback) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal feedback payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish feedback failed: %w", err)
	}
	return nil
}
