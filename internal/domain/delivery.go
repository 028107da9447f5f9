package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusReturned  DeliveryStatus = "RETURNED"
)

type Courier struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Delivery is a side attribute of an order; it never drives the order
// state machine.
type Delivery struct {
	ID         uuid.UUID      `json:"id"`
	Address    string         `json:"address"`
	Status     DeliveryStatus `json:"status"`
	TrackingID string         `json:"tracking_id"`
	Courier    *Courier       `json:"courier,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewDelivery(id uuid.UUID, address string, now time.Time) *Delivery {
	return &Delivery{
		ID:         id,
		Address:    address,
		Status:     DeliveryStatusPending,
		TrackingID: generateTrackingID(id),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (d *Delivery) AssignCourier(c *Courier, now time.Time) {
	d.Courier = c
	d.UpdatedAt = now
}

func (d *Delivery) StartTransit(now time.Time) {
	d.Status = DeliveryStatusInTransit
	d.UpdatedAt = now
}

func (d *Delivery) Complete(now time.Time) {
	d.Status = DeliveryStatusDelivered
	d.UpdatedAt = now
}

func (d *Delivery) Return(now time.Time) {
	d.Status = DeliveryStatusReturned
	d.UpdatedAt = now
}

func generateTrackingID(id uuid.UUID) string {
	return fmt.Sprintf("TRK_%s", id.String()[:8])
}
