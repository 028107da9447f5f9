package courier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func shippedOrder(t *testing.T) *domain.Order {
	t.Helper()
	now := time.Now()
	o, err := domain.NewOrder(uuid.New(), nil, []domain.OrderLine{
		{ProductID: 102, WarehouseID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(12990)},
	}, nil, decimal.NewFromInt(12990), nil, now)
	require.NoError(t, err)
	o.AttachDelivery(domain.NewDelivery(uuid.New(), "Shymkent, Tauke Khan 5", now))
	return o
}

func TestEventCourier_CreateShipment(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewEventCourier(pub)
	o := shippedOrder(t)

	c.CreateShipment(context.Background(), o)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, messaging.ShipmentRequestedEvent, e.EventType)
	assert.Equal(t, o.ID, e.OrderID)

	payload, ok := e.Payload.(messaging.ShipmentPayload)
	require.True(t, ok)
	assert.Equal(t, o.Delivery().TrackingID, payload.TrackingID)
	assert.Equal(t, "Shymkent, Tauke Khan 5", payload.Address)
}

func TestEventCourier_SwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewEventCourier(pub)
	o := shippedOrder(t)

	assert.NotPanics(t, func() {
		c.CreateShipment(context.Background(), o)
		c.TrackShipment(context.Background(), o.ID, o.Delivery().ID)
	})
	require.Len(t, pub.events, 2)
	assert.Equal(t, messaging.ShipmentTrackedEvent, pub.events[1].EventType)
}
