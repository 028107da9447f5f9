package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EventPublisher delivers domain events to whoever observes them.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// RetryPublisher can retry a failed publish with backoff.
type RetryPublisher interface {
	EventPublisher
	PublishWithRetry(ctx context.Context, event Event, maxRetries int) error
}

var _ RetryPublisher = (*Publisher)(nil)

type Publisher struct {
	client *RabbitMQClient
}

func NewPublisher(client *RabbitMQClient) *Publisher {
	return &Publisher{
		client: client,
	}
}

// stamp fills in the id and timestamp of an event built without them.
func stamp(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CorrelationID == uuid.Nil {
		event.CorrelationID = event.ID
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return fmt.Errorf("there is no connection to RabbitMQ")
	}

	stamp(&event)

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %w", err)
	}

	routingKey := RoutingKey(event.Service, event.EventType)

	err = p.client.Channel().Publish(
		p.client.Exchange(),
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"order_id":       event.OrderID.String(),
				"correlation_id": event.CorrelationID.String(),
				"service":        event.Service,
				"event_type":     string(event.EventType),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}

	zap.S().Debugf("Event published: %s", routingKey)
	return nil
}

func (p *Publisher) PublishWithRetry(ctx context.Context, event Event, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if lastErr = p.Publish(ctx, event); lastErr == nil {
			return nil
		}
		zap.S().Warnf("Publish error (retry %d/%d): %v", i+1, maxRetries, lastErr)

		if i < maxRetries-1 {
			select {
			case <-time.After(time.Second * time.Duration(i+1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("event publish failed after %d attempts: %w", maxRetries, lastErr)
}

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	stamp(&event)
	zap.S().Infof("Event: %s order=%s payload=%+v", event.EventType, event.OrderID, event.Payload)
	return nil
}
