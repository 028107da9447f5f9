package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// StockReservation is the view an order keeps of the stock committed for
// one of its lines. Only the allocator that issued it can release it.
type StockReservation interface {
	WarehouseID() WarehouseID
	ProductID() ProductID
	Quantity() int
}

// OrderLine captures price and quantity by value at checkout time.
type OrderLine struct {
	ProductID   ProductID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	WarehouseID WarehouseID     `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Client    *Client

	mu           sync.RWMutex
	lines        []OrderLine
	total        decimal.Decimal
	amountDue    decimal.Decimal
	discount     *DiscountRule
	status       OrderStatus
	updatedAt    time.Time
	delivery     *Delivery
	payment      *PaymentRecord
	reservations []StockReservation
}

// NewOrder builds an order in the transient CREATED state. amountDue is the
// cart total after discount; Total stays the undiscounted line sum.
func NewOrder(id uuid.UUID, client *Client, lines []OrderLine, discount *DiscountRule, amountDue decimal.Decimal, reservations []StockReservation, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:           id,
		CreatedAt:    now,
		Client:       client,
		lines:        append([]OrderLine(nil), lines...),
		amountDue:    amountDue,
		status:       OrderStatusCreated,
		updatedAt:    now,
		reservations: append([]StockReservation(nil), reservations...),
	}
	if discount != nil {
		d := *discount
		o.discount = &d
	}
	o.recalcTotal()
	return o, nil
}

func (o *Order) recalcTotal() {
	total := decimal.Zero
	for _, l := range o.lines {
		total = total.Add(l.Subtotal())
	}
	o.total = total
}

// Place moves a freshly created order into PROCESSING.
func (o *Order) Place(now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusCreated {
		return &TransitionError{From: o.status, To: OrderStatusProcessing}
	}
	o.setStatus(OrderStatusProcessing, now)
	return nil
}

// Pay attaches a completed payment. Any other payment status leaves the order
// untouched so the caller can retry.
func (o *Order) Pay(payment *PaymentRecord, now time.Time) error {
	if payment == nil || !payment.IsCompleted() {
		return ErrPaymentNotCompleted
	}

	o.mu.Lock()
	switch o.status {
	case OrderStatusCreated, OrderStatusProcessing:
	default:
		from := o.status
		o.mu.Unlock()
		return &TransitionError{From: from, To: OrderStatusProcessing}
	}
	if o.payment != nil && o.payment.IsCompleted() {
		o.mu.Unlock()
		return ErrAlreadyPaid
	}
	o.payment = payment
	o.setStatus(OrderStatusProcessing, now)
	o.mu.Unlock()

	if o.Client != nil {
		o.Client.addOrderToHistory(o)
	}
	return nil
}

// Cancel is unconditional and reports the status it replaced. Stock is not
// returned here; see TakeReservations.
func (o *Order) Cancel(now time.Time) OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.status
	o.setStatus(OrderStatusCancelled, now)
	return prev
}

func (o *Order) Ship(now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusProcessing || o.payment == nil || !o.payment.IsCompleted() {
		return &TransitionError{From: o.status, To: OrderStatusShipped}
	}
	o.setStatus(OrderStatusShipped, now)
	return nil
}

func (o *Order) Deliver(now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusShipped {
		return &TransitionError{From: o.status, To: OrderStatusDelivered}
	}
	o.setStatus(OrderStatusDelivered, now)
	return nil
}

func (o *Order) AttachDelivery(d *Delivery) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivery = d
}

func (o *Order) setStatus(status OrderStatus, now time.Time) {
	o.status = status
	o.updatedAt = now
}

func (o *Order) Status() OrderStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *Order) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updatedAt
}

func (o *Order) Lines() []OrderLine {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]OrderLine(nil), o.lines...)
}

// Total is the exact sum of the line subtotals.
func (o *Order) Total() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.total
}

// AmountDue is what the shopper is charged: the cart total at checkout.
func (o *Order) AmountDue() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.amountDue
}

func (o *Order) Discount() *DiscountRule {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.discount == nil {
		return nil
	}
	d := *o.discount
	return &d
}

func (o *Order) Payment() *PaymentRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.payment
}

func (o *Order) Delivery() *Delivery {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.delivery
}

func (o *Order) IsPaid() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.payment != nil && o.payment.IsCompleted()
}

// Reservations lists the stock still held for this order.
func (o *Order) Reservations() []StockReservation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]StockReservation(nil), o.reservations...)
}

// TakeReservations hands the held stock to the caller exactly once.
func (o *Order) TakeReservations() []StockReservation {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.reservations
	o.reservations = nil
	return r
}
