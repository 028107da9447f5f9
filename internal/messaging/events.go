package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	// Order events
	OrderPlacedEvent    EventType = "order.placed"
	OrderPaidEvent      EventType = "order.paid"
	OrderCancelledEvent EventType = "order.cancelled"
	OrderShippedEvent   EventType = "order.shipped"
	OrderDeliveredEvent EventType = "order.delivered"
	CheckoutFailedEvent EventType = "checkout.failed"

	// Payment events
	PaymentProcessedEvent EventType = "payment.processed"
	PaymentFailedEvent    EventType = "payment.failed"
	PaymentRefundedEvent  EventType = "payment.refunded"

	// Inventory events
	StockRestockedEvent EventType = "inventory.restocked"

	// Shipping events
	ShipmentRequestedEvent EventType = "shipping.requested"
	ShipmentTrackedEvent   EventType = "shipping.tracked"

	// Loyalty events
	LoyaltyAwardedEvent EventType = "loyalty.awarded"
)

type Event struct {
	ID            uuid.UUID   `json:"id"`
	OrderID       uuid.UUID   `json:"order_id"`
	EventType     EventType   `json:"event_type"`
	Payload       interface{} `json:"payload"`
	Timestamp     time.Time   `json:"timestamp"`
	Service       string      `json:"service"`
	CorrelationID uuid.UUID   `json:"correlation_id"`
}

type OrderLinePayload struct {
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	ClientID     int64              `json:"client_id"`
	Total        decimal.Decimal    `json:"total"`
	AmountDue    decimal.Decimal    `json:"amount_due"`
	DiscountCode string             `json:"discount_code,omitempty"`
	Lines        []OrderLinePayload `json:"lines"`
}

type CheckoutFailedPayload struct {
	CartID    uuid.UUID `json:"cart_id"`
	ClientID  int64     `json:"client_id"`
	ProductID int64     `json:"product_id,omitempty"`
	Reason    string    `json:"reason"`
}

type PaymentPayload struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

type OrderStatusPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type RestockPayload struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int   `json:"quantity"`
}

type ShipmentPayload struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	TrackingID string    `json:"tracking_id"`
	Address    string    `json:"address,omitempty"`
}

type LoyaltyAwardedPayload struct {
	ClientID int64 `json:"client_id"`
	Points   int64 `json:"points"`
	Balance  int64 `json:"balance"`
}
