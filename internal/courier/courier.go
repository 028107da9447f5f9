package courier

import (
	"context"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "courier"

// Service is the shipment collaborator. Calls are notifications: nothing they
// do is reported back to the caller.
type Service interface {
	CreateShipment(ctx context.Context, order *domain.Order)
	TrackShipment(ctx context.Context, orderID, deliveryID uuid.UUID)
}

// EventCourier hands shipment requests to the courier integration over the
// event bus.
type EventCourier struct {
	publisher messaging.EventPublisher
}

func NewEventCourier(publisher messaging.EventPublisher) *EventCourier {
	return &EventCourier{publisher: publisher}
}

func (c *EventCourier) CreateShipment(ctx context.Context, order *domain.Order) {
	payload := messaging.ShipmentPayload{}
	if d := order.Delivery(); d != nil {
		payload.DeliveryID = d.ID
		payload.TrackingID = d.TrackingID
		payload.Address = d.Address
	}

	c.publish(ctx, messaging.Event{
		OrderID:   order.ID,
		EventType: messaging.ShipmentRequestedEvent,
		Service:   serviceName,
		Payload:   payload,
	})
}

func (c *EventCourier) TrackShipment(ctx context.Context, orderID, deliveryID uuid.UUID) {
	c.publish(ctx, messaging.Event{
		OrderID:   orderID,
		EventType: messaging.ShipmentTrackedEvent,
		Service:   serviceName,
		Payload:   messaging.ShipmentPayload{DeliveryID: deliveryID},
	})
}

func (c *EventCourier) publish(ctx context.Context, event messaging.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		zap.S().Warnf("Courier notification dropped: %s order=%s: %v", event.EventType, event.OrderID, err)
	}
}
