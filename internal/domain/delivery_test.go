package domain_test

import (
	"testing"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDelivery_Lifecycle(t *testing.T) {
	id := uuid.MustParse("0f8b3a4c-1111-4222-8333-944455556666")
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	d := domain.NewDelivery(id, "Almaty, Abaya 1", start)

	assert.Equal(t, "TRK_0f8b3a4c", d.TrackingID)
	assert.Equal(t, domain.DeliveryStatusPending, d.Status)

	d.AssignCourier(&domain.Courier{ID: 7, Name: "Yerlan"}, start.Add(time.Hour))
	d.StartTransit(start.Add(2 * time.Hour))
	assert.Equal(t, domain.DeliveryStatusInTransit, d.Status)
	assert.Equal(t, "Yerlan", d.Courier.Name)

	d.Return(start.Add(24 * time.Hour))
	assert.Equal(t, domain.DeliveryStatusReturned, d.Status)
	assert.Equal(t, start.Add(24*time.Hour), d.UpdatedAt)
}
