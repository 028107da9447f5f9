package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/cart"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/courier"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/gateway"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "fulfillment-service"

// Catalog supplies the products carts refer to.
type Catalog interface {
	Product(id domain.ProductID) (*domain.Product, error)
}

type Option func(*FulfillmentService)

func WithIDGenerator(ids domain.IDGenerator) Option {
	return func(s *FulfillmentService) { s.ids = ids }
}

func WithClock(now func() time.Time) Option {
	return func(s *FulfillmentService) { s.now = now }
}

// WithRestockOnCancel controls whether cancelling an unshipped order returns
// its reserved stock to the ledger.
func WithRestockOnCancel(enabled bool) Option {
	return func(s *FulfillmentService) { s.restockOnCancel = enabled }
}

// WithPublishRetries sets how many attempts payment and paid-order events get
// when the publisher supports retries.
func WithPublishRetries(n int) Option {
	return func(s *FulfillmentService) { s.publishRetries = n }
}

// WithReserveTimeout bounds how long a checkout may spend reserving stock.
func WithReserveTimeout(d time.Duration) Option {
	return func(s *FulfillmentService) { s.reserveTimeout = d }
}

// FulfillmentService wires carts, the allocator and the external
// collaborators together and keeps the live clients, carts and orders.
type FulfillmentService struct {
	catalog   Catalog
	allocator *inventory.Allocator
	gateway   gateway.PaymentGateway
	courier   courier.Service
	publisher messaging.EventPublisher

	ids             domain.IDGenerator
	now             func() time.Time
	restockOnCancel bool
	reserveTimeout  time.Duration
	publishRetries  int

	mu           sync.RWMutex
	nextClientID domain.ClientID
	clients      map[domain.ClientID]*domain.Client
	carts        map[uuid.UUID]*cart.Cart
	orders       map[uuid.UUID]*domain.Order
	payments     map[uuid.UUID]*domain.PaymentRecord
	lastPayment  map[uuid.UUID]*domain.PaymentRecord // by order id
	promos       map[string]*domain.DiscountRule

	payLocks sync.Map // order id -> *sync.Mutex
}

func NewFulfillmentService(
	catalog Catalog,
	allocator *inventory.Allocator,
	paymentGateway gateway.PaymentGateway,
	courierService courier.Service,
	publisher messaging.EventPublisher,
	opts ...Option,
) *FulfillmentService {
	s := &FulfillmentService{
		catalog:         catalog,
		allocator:       allocator,
		gateway:         paymentGateway,
		courier:         courierService,
		publisher:       publisher,
		ids:             domain.UUIDGenerator{},
		now:             time.Now,
		restockOnCancel: true,
		publishRetries:  3,
		clients:         make(map[domain.ClientID]*domain.Client),
		carts:           make(map[uuid.UUID]*cart.Cart),
		orders:          make(map[uuid.UUID]*domain.Order),
		payments:        make(map[uuid.UUID]*domain.PaymentRecord),
		lastPayment:     make(map[uuid.UUID]*domain.PaymentRecord),
		promos:          make(map[string]*domain.DiscountRule),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FulfillmentService) RegisterClient(name, email, address, phone string) *domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextClientID++
	c := domain.NewClient(s.nextClientID, name, email, address, phone)
	s.clients[c.ID] = c

	zap.S().Infof("Client registered: ClientID=%d", c.ID)
	return c
}

func (s *FulfillmentService) Client(id domain.ClientID) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrClientNotFound, id)
	}
	return c, nil
}

// RegisterPromo makes a discount rule redeemable by its code.
func (s *FulfillmentService) RegisterPromo(rule *domain.DiscountRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[strings.ToUpper(rule.Code)] = rule
}

func (s *FulfillmentService) OpenCart(clientID domain.ClientID) (*cart.Cart, error) {
	client, err := s.Client(clientID)
	if err != nil {
		return nil, err
	}

	c := cart.New(client, s.allocator, cart.WithIDGenerator(s.ids), cart.WithClock(s.now))

	s.mu.Lock()
	s.carts[c.ID] = c
	s.mu.Unlock()

	return c, nil
}

func (s *FulfillmentService) Cart(id uuid.UUID) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCartNotFound, id)
	}
	return c, nil
}

func (s *FulfillmentService) AddToCart(cartID uuid.UUID, productID domain.ProductID, qty int) (*cart.Cart, error) {
	c, err := s.Cart(cartID)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.Product(productID)
	if err != nil {
		return nil, err
	}
	c.AddProduct(product, qty)
	return c, nil
}

func (s *FulfillmentService) RemoveFromCart(cartID uuid.UUID, productID domain.ProductID) (*cart.Cart, error) {
	c, err := s.Cart(cartID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveProduct(productID) {
		return nil, fmt.Errorf("%w: %d not in cart", domain.ErrProductNotFound, productID)
	}
	return c, nil
}

// ApplyPromo redeems a promo code on a cart. Unknown and expired codes are
// both rejected with ErrInvalidDiscount and leave the cart as it was.
func (s *FulfillmentService) ApplyPromo(cartID uuid.UUID, code string) (*cart.Cart, error) {
	c, err := s.Cart(cartID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	rule, ok := s.promos[strings.ToUpper(strings.TrimSpace(code))]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown code %q", domain.ErrInvalidDiscount, code)
	}

	if err := c.ApplyDiscount(rule); err != nil {
		return nil, err
	}
	return c, nil
}

// Checkout turns a cart into a placed order or fails leaving stock untouched.
func (s *FulfillmentService) Checkout(ctx context.Context, cartID uuid.UUID) (*domain.Order, error) {
	c, err := s.Cart(cartID)
	if err != nil {
		return nil, err
	}

	reserveCtx := ctx
	if s.reserveTimeout > 0 {
		var cancel context.CancelFunc
		reserveCtx, cancel = context.WithTimeout(ctx, s.reserveTimeout)
		defer cancel()
	}

	order, err := c.Checkout(reserveCtx)
	if err != nil {
		s.publishCheckoutFailed(ctx, c, err)
		return nil, err
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	zap.S().Infof("Order placed: OrderID=%s, ClientID=%d, Total=%s, AmountDue=%s",
		order.ID, c.Client.ID, order.Total(), order.AmountDue())

	s.publish(ctx, order.ID, messaging.OrderPlacedEvent, orderPlacedPayload(order))
	return order, nil
}

func (s *FulfillmentService) GetOrder(id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return o, nil
}

func (s *FulfillmentService) Payment(id uuid.UUID) (*domain.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment not found: %s", id)
	}
	return p, nil
}

func (s *FulfillmentService) lockPayment(orderID uuid.UUID) func() {
	l, _ := s.payLocks.LoadOrStore(orderID, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// PayOrder charges the order's amount due through the payment gateway. A
// declined payment leaves the order unchanged and may be retried. While an
// earlier attempt is still pending it is returned with ErrPaymentPending.
func (s *FulfillmentService) PayOrder(ctx context.Context, orderID uuid.UUID, method domain.PaymentMethod) (*domain.PaymentRecord, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPayment(order.ID)
	defer unlock()

	if order.IsPaid() {
		return order.Payment(), domain.ErrAlreadyPaid
	}
	if status := order.Status(); status != domain.OrderStatusProcessing {
		return nil, &domain.TransitionError{From: status, To: domain.OrderStatusProcessing}
	}

	s.mu.Lock()
	if last := s.lastPayment[order.ID]; last != nil && last.Status == domain.PaymentStatusPending {
		s.mu.Unlock()
		return last, domain.ErrPaymentPending
	}
	payment := domain.NewPaymentRecord(s.ids.NewID(), order.ID, method, order.AmountDue(), s.now())
	s.payments[payment.ID] = payment
	s.lastPayment[order.ID] = payment
	s.mu.Unlock()

	if err := s.gateway.Process(ctx, payment); err != nil {
		zap.S().Warnf("Payment gateway error: OrderID=%s, PaymentID=%s: %v", order.ID, payment.ID, err)
		if payment.Status == domain.PaymentStatusPending {
			_ = payment.Fail(fmt.Sprintf("gateway error: %v", err), s.now())
		}
	}

	return payment, s.settle(ctx, order, payment)
}

// settle applies a resolved payment to its order.
func (s *FulfillmentService) settle(ctx context.Context, order *domain.Order, payment *domain.PaymentRecord) error {
	if err := order.Pay(payment, s.now()); err != nil {
		if errors.Is(err, domain.ErrPaymentNotCompleted) {
			zap.S().Infof("Payment not completed: OrderID=%s, PaymentID=%s, Status=%s",
				order.ID, payment.ID, payment.Status)
			if payment.Status == domain.PaymentStatusFailed {
				s.publishWithRetry(ctx, order.ID, messaging.PaymentFailedEvent, paymentPayload(payment))
			}
		}
		return err
	}

	zap.S().Infof("Order paid: OrderID=%s, PaymentID=%s, Amount=%s", order.ID, payment.ID, payment.Amount)
	s.publishWithRetry(ctx, order.ID, messaging.OrderPaidEvent, paymentPayload(payment))

	if order.Client != nil {
		points := order.Client.Loyalty.Award(order.Total())
		zap.S().Infof("Loyalty: client %d awarded %d points", order.Client.ID, points)
		s.publish(ctx, order.ID, messaging.LoyaltyAwardedEvent, messaging.LoyaltyAwardedPayload{
			ClientID: int64(order.Client.ID),
			Points:   points,
			Balance:  order.Client.Loyalty.Balance(),
		})
	}
	return nil
}

// CancelOrder cancels unconditionally. Unshipped stock goes back to the
// warehouses it came from when restocking is enabled, and a completed
// payment is refunded. Loyalty points already awarded are kept.
func (s *FulfillmentService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPayment(order.ID)
	defer unlock()

	before := order.Cancel(s.now())
	zap.S().Infof("Order is cancelled: OrderID=%s, Reason=%s", order.ID, reason)

	if s.restockOnCancel && before != domain.OrderStatusShipped && before != domain.OrderStatusDelivered {
		for _, r := range order.TakeReservations() {
			s.allocator.Release(r)
			s.publish(ctx, order.ID, messaging.StockRestockedEvent, messaging.RestockPayload{
				WarehouseID: int64(r.WarehouseID()),
				ProductID:   int64(r.ProductID()),
				Quantity:    r.Quantity(),
			})
		}
	}

	if payment := order.Payment(); payment != nil && payment.CanRefund() {
		if err := s.gateway.Refund(ctx, payment); err != nil {
			zap.S().Warnf("Refund failed: OrderID=%s, PaymentID=%s: %v", order.ID, payment.ID, err)
		} else {
			s.publishWithRetry(ctx, order.ID, messaging.PaymentRefundedEvent, paymentPayload(payment))
		}
	}

	s.publish(ctx, order.ID, messaging.OrderCancelledEvent, messaging.OrderStatusPayload{
		Status: string(domain.OrderStatusCancelled),
		Reason: reason,
	})
	return order, nil
}

// ShipOrder hands a paid order to the courier. The reserved stock is
// committed as sold.
func (s *FulfillmentService) ShipOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPayment(order.ID)
	defer unlock()

	now := s.now()
	if err := order.Ship(now); err != nil {
		return nil, err
	}
	s.allocator.CommitAll(order.TakeReservations())

	address := ""
	if order.Client != nil {
		address = order.Client.Address
	}
	delivery := domain.NewDelivery(s.ids.NewID(), address, now)
	delivery.StartTransit(now)
	order.AttachDelivery(delivery)

	s.courier.CreateShipment(ctx, order)

	zap.S().Infof("Order shipped: OrderID=%s, TrackingID=%s", order.ID, delivery.TrackingID)
	s.publish(ctx, order.ID, messaging.OrderShippedEvent, messaging.ShipmentPayload{
		DeliveryID: delivery.ID,
		TrackingID: delivery.TrackingID,
		Address:    delivery.Address,
	})
	return order, nil
}

func (s *FulfillmentService) DeliverOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPayment(order.ID)
	defer unlock()

	now := s.now()
	if err := order.Deliver(now); err != nil {
		return nil, err
	}
	if d := order.Delivery(); d != nil {
		d.Complete(now)
		s.courier.TrackShipment(ctx, order.ID, d.ID)
	}

	zap.S().Infof("Order delivered: OrderID=%s", order.ID)
	s.publish(ctx, order.ID, messaging.OrderDeliveredEvent, messaging.OrderStatusPayload{
		Status: string(domain.OrderStatusDelivered),
	})
	return order, nil
}

// HandleEvent applies a payment outcome reported asynchronously by the
// gateway. Outcomes for unknown or already resolved payments are ignored. A
// charge that completes after its order was cancelled or paid otherwise is
// refunded; a failed refund is returned so the event gets redelivered.
func (s *FulfillmentService) HandleEvent(ctx context.Context, event messaging.Event) error {
	switch event.EventType {
	case messaging.PaymentProcessedEvent, messaging.PaymentFailedEvent:
	default:
		zap.S().Debugf("Unhandled event type: %s", event.EventType)
		return nil
	}

	payloadMap, ok := event.Payload.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid payload format for %s", event.EventType)
	}
	paymentIDStr, _ := payloadMap["payment_id"].(string)
	paymentID, err := uuid.Parse(paymentIDStr)
	if err != nil {
		return fmt.Errorf("invalid payment_id format: %q", paymentIDStr)
	}

	payment, err := s.Payment(paymentID)
	if err != nil {
		zap.S().Warnf("Payment outcome for unknown payment: PaymentID=%s", paymentID)
		return nil
	}
	order, err := s.GetOrder(payment.OrderID)
	if err != nil {
		return err
	}

	unlock := s.lockPayment(order.ID)
	defer unlock()

	if payment.Status == domain.PaymentStatusPending {
		now := s.now()
		if event.EventType == messaging.PaymentProcessedEvent {
			txID, _ := payloadMap["transaction_id"].(string)
			if err := payment.Complete(txID, now); err != nil {
				return err
			}
		} else {
			reason, _ := payloadMap["reason"].(string)
			if err := payment.Fail(reason, now); err != nil {
				return err
			}
		}

		err := s.settle(ctx, order, payment)
		switch {
		case err == nil, errors.Is(err, domain.ErrPaymentNotCompleted):
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrAlreadyPaid):
			zap.S().Warnf("Payment cannot be applied: OrderID=%s, PaymentID=%s: %v", order.ID, payment.ID, err)
		default:
			return err
		}
	}

	if payment.CanRefund() && order.Payment() != payment {
		return s.refundUnapplied(ctx, order, payment)
	}
	zap.S().Debugf("Payment outcome handled: PaymentID=%s, Status=%s", payment.ID, payment.Status)
	return nil
}

// refundUnapplied returns a completed charge that its order never took.
func (s *FulfillmentService) refundUnapplied(ctx context.Context, order *domain.Order, payment *domain.PaymentRecord) error {
	if err := s.gateway.Refund(ctx, payment); err != nil {
		return fmt.Errorf("refund of unapplied payment %s: %w", payment.ID, err)
	}
	zap.S().Infof("Unapplied payment refunded: OrderID=%s, PaymentID=%s, Amount=%s", order.ID, payment.ID, payment.Amount)
	s.publishWithRetry(ctx, order.ID, messaging.PaymentRefundedEvent, paymentPayload(payment))
	return nil
}

func (s *FulfillmentService) StockLevel(warehouseID domain.WarehouseID, productID domain.ProductID) (int, error) {
	ledger := s.allocator.Ledger()
	if !ledger.HasWarehouse(warehouseID) {
		return 0, fmt.Errorf("%w: %d", domain.ErrUnknownWarehouse, warehouseID)
	}
	return ledger.Get(warehouseID, productID), nil
}

func (s *FulfillmentService) Reserved(productID domain.ProductID) int {
	return s.allocator.Reserved(productID)
}

func (s *FulfillmentService) publishCheckoutFailed(ctx context.Context, c *cart.Cart, cause error) {
	payload := messaging.CheckoutFailedPayload{
		CartID:   c.ID,
		ClientID: int64(c.Client.ID),
		Reason:   cause.Error(),
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(cause, &stockErr) {
		payload.ProductID = int64(stockErr.ProductID)
	}
	s.publish(ctx, uuid.Nil, messaging.CheckoutFailedEvent, payload)
}

func (s *FulfillmentService) newEvent(orderID uuid.UUID, eventType messaging.EventType, payload interface{}) messaging.Event {
	return messaging.Event{
		ID:        s.ids.NewID(),
		OrderID:   orderID,
		EventType: eventType,
		Service:   serviceName,
		Payload:   payload,
		Timestamp: s.now(),
	}
}

// publish never fails the operation: observers are notified best effort.
func (s *FulfillmentService) publish(ctx context.Context, orderID uuid.UUID, eventType messaging.EventType, payload interface{}) {
	if err := s.publisher.Publish(ctx, s.newEvent(orderID, eventType, payload)); err != nil {
		zap.S().Warnf("%s event publish error: OrderID=%s: %v", eventType, orderID, err)
	}
}

// publishWithRetry is used for events that move money.
func (s *FulfillmentService) publishWithRetry(ctx context.Context, orderID uuid.UUID, eventType messaging.EventType, payload interface{}) {
	rp, ok := s.publisher.(messaging.RetryPublisher)
	if !ok || s.publishRetries <= 1 {
		s.publish(ctx, orderID, eventType, payload)
		return
	}
	if err := rp.PublishWithRetry(ctx, s.newEvent(orderID, eventType, payload), s.publishRetries); err != nil {
		zap.S().Errorf("%s event lost: OrderID=%s: %v", eventType, orderID, err)
	}
}

func orderPlacedPayload(order *domain.Order) messaging.OrderPlacedPayload {
	payload := messaging.OrderPlacedPayload{
		Total:     order.Total(),
		AmountDue: order.AmountDue(),
	}
	if order.Client != nil {
		payload.ClientID = int64(order.Client.ID)
	}
	if d := order.Discount(); d != nil {
		payload.DiscountCode = d.Code
	}
	for _, l := range order.Lines() {
		payload.Lines = append(payload.Lines, messaging.OrderLinePayload{
			ProductID:   int64(l.ProductID),
			WarehouseID: int64(l.WarehouseID),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return payload
}

func paymentPayload(p *domain.PaymentRecord) messaging.PaymentPayload {
	return messaging.PaymentPayload{
		PaymentID:     p.ID,
		Method:        string(p.Method),
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Reason:        p.FailureReason,
	}
}
