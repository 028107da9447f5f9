package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "fulfillment.fulfillment-service.order.placed",
		RoutingKey("fulfillment-service", OrderPlacedEvent))
	assert.Equal(t, "fulfillment.payment-gateway.payment.failed",
		RoutingKey("payment-gateway", PaymentFailedEvent))
}

func TestRabbitMQConfig_ConnectionURL(t *testing.T) {
	cfg := RabbitMQConfig{Host: "mq", Port: 5672, Username: "guest", Password: "secret", VHost: "/"}
	assert.Equal(t, "amqp://guest:secret@mq:5672/", cfg.ConnectionURL())

	cfg.VHost = "shop"
	assert.Equal(t, "amqp://guest:secret@mq:5672/shop", cfg.ConnectionURL())
}

func TestStamp(t *testing.T) {
	var e Event
	stamp(&e)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, e.ID, e.CorrelationID)
	assert.False(t, e.Timestamp.IsZero())

	fixed := Event{ID: uuid.New(), CorrelationID: uuid.New(), Timestamp: time.Unix(0, 0)}
	before := fixed
	stamp(&fixed)
	assert.Equal(t, before, fixed)
}

func TestDecodeEvent(t *testing.T) {
	paymentID := uuid.New()
	body, err := json.Marshal(Event{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		EventType: PaymentProcessedEvent,
		Service:   "payment-gateway",
		Payload: map[string]interface{}{
			"payment_id":     paymentID.String(),
			"transaction_id": "TXN_12345678",
		},
	})
	require.NoError(t, err)

	event, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, PaymentProcessedEvent, event.EventType)

	payload, ok := event.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, paymentID.String(), payload["payment_id"])

	_, err = DecodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), Event{EventType: OrderPaidEvent}))
}

func TestPublisher_RequiresConnection(t *testing.T) {
	client := NewRabbitMQClient(&RabbitMQConfig{RetryCount: 1})
	p := NewPublisher(client)

	assert.False(t, client.IsConnected())
	assert.Error(t, p.Publish(context.Background(), Event{EventType: OrderPaidEvent}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishWithRetry(ctx, Event{EventType: OrderPaidEvent}, 3), context.Canceled)
}
