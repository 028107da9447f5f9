package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockAllocator is the slice of the inventory allocator a cart depends on.
type StockAllocator interface {
	Reserve(ctx context.Context, productID domain.ProductID, qty int) (*inventory.Reservation, error)
	Release(handle domain.StockReservation)
}

// Line is a requested product and quantity. The product is borrowed from the
// catalog and never mutated.
type Line struct {
	Product  *domain.Product
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Option func(*Cart)

func WithIDGenerator(ids domain.IDGenerator) Option {
	return func(c *Cart) { c.ids = ids }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

type Cart struct {
	ID     uuid.UUID
	Client *domain.Client

	allocator StockAllocator
	ids       domain.IDGenerator
	now       func() time.Time

	mu       sync.Mutex
	lines    []Line
	index    map[domain.ProductID]int
	discount *domain.DiscountRule
}

func New(client *domain.Client, allocator StockAllocator, opts ...Option) *Cart {
	c := &Cart{
		Client:    client,
		allocator: allocator,
		ids:       domain.UUIDGenerator{},
		now:       time.Now,
		index:     make(map[domain.ProductID]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ID = c.ids.NewID()
	return c
}

// AddProduct folds qty into the product's line. Non-positive quantities are
// ignored.
func (c *Cart) AddProduct(p *domain.Product, qty int) {
	if p == nil || qty <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[p.ID]; ok {
		c.lines[i].Quantity += qty
		return
	}
	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
}

func (c *Cart) RemoveProduct(productID domain.ProductID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.reindex()
	return true
}

func (c *Cart) reindex() {
	c.index = make(map[domain.ProductID]int, len(c.lines))
	for i, l := range c.lines {
		c.index[l.Product.ID] = i
	}
}

// ApplyDiscount activates rule if it is still valid today. A rejected rule
// leaves the previously applied one in place.
func (c *Cart) ApplyDiscount(rule *domain.DiscountRule) error {
	if rule == nil {
		return domain.ErrInvalidDiscount
	}
	if !rule.IsValid(c.now()) {
		zap.S().Infof("Promo code rejected: code=%s, expired=%s", rule.Code, rule.ExpiresOn.Format(time.DateOnly))
		return fmt.Errorf("%w: %s", domain.ErrInvalidDiscount, rule.Code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	r := *rule
	c.discount = &r
	return nil
}

func (c *Cart) Discount() *domain.DiscountRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discount == nil {
		return nil
	}
	r := *c.discount
	return &r
}

// Lines returns the cart lines in the order they were first added.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotal()
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discounted(c.activeDiscount(c.now()), c.subtotal())
}

func (c *Cart) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// activeDiscount is the applied rule unless it has expired since.
func (c *Cart) activeDiscount(now time.Time) *domain.DiscountRule {
	if c.discount == nil || !c.discount.IsValid(now) {
		return nil
	}
	return c.discount
}

func (c *Cart) discounted(rule *domain.DiscountRule, subtotal decimal.Decimal) decimal.Decimal {
	if rule == nil {
		return subtotal
	}
	return decimal.Max(decimal.Zero, rule.Apply(subtotal))
}

// Checkout reserves stock for every line in declaration order. If any line
// cannot be reserved, everything reserved by this attempt is released before
// the error is returned, and no order exists.
func (c *Cart) Checkout(ctx context.Context) (*domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	reservations := make([]domain.StockReservation, 0, len(c.lines))
	orderLines := make([]domain.OrderLine, 0, len(c.lines))

	for _, l := range c.lines {
		r, err := c.allocator.Reserve(ctx, l.Product.ID, l.Quantity)
		if err != nil {
			c.rollback(reservations)
			zap.S().Infof("Checkout failed: cart=%s, product=%s, err=%v", c.ID, l.Product.Name, err)
			return nil, fmt.Errorf("checkout: %w", err)
		}
		reservations = append(reservations, r)
		orderLines = append(orderLines, domain.OrderLine{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			WarehouseID: r.WarehouseID(),
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}

	subtotal := decimal.Zero
	for _, ol := range orderLines {
		subtotal = subtotal.Add(ol.Subtotal())
	}
	now := c.now()
	rule := c.activeDiscount(now)
	if rule == nil && c.discount != nil {
		zap.S().Infof("Promo code expired before checkout: code=%s, cart=%s", c.discount.Code, c.ID)
	}
	amountDue := c.discounted(rule, subtotal)

	order, err := domain.NewOrder(c.ids.NewID(), c.Client, orderLines, rule, amountDue, reservations, now)
	if err != nil {
		c.rollback(reservations)
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := order.Place(now); err != nil {
		c.rollback(reservations)
		return nil, fmt.Errorf("checkout: %w", err)
	}

	zap.S().Infof("Checkout subtotal: %s, total after promo: %s, order=%s",
		subtotal.String(), amountDue.String(), order.ID)

	c.lines = nil
	c.index = make(map[domain.ProductID]int)
	c.discount = nil

	return order, nil
}

func (c *Cart) rollback(reservations []domain.StockReservation) {
	for i := len(reservations) - 1; i >= 0; i-- {
		c.allocator.Release(reservations[i])
	}
}
