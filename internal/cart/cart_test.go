package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/cart"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ledger     *inventory.StockLedger
	allocator  *inventory.Allocator
	client     *domain.Client
	phone      *domain.Product
	headphones *domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledger := inventory.NewStockLedger()
	ledger.AddWarehouse(domain.Warehouse{ID: 1, Name: "Main warehouse", Location: "Almaty"})
	ledger.AddWarehouse(domain.Warehouse{ID: 2, Name: "Secondary warehouse", Location: "Shymkent"})
	require.NoError(t, ledger.Add(1, 101, 15))
	require.NoError(t, ledger.Add(2, 102, 50))

	return &fixture{
		ledger:    ledger,
		allocator: inventory.NewAllocator(ledger),
		client:    domain.NewClient(1, "Aruzhan", "a@example.kz", "Almaty, Abaya 1", "+7 700 000 0000"),
		phone: domain.NewProduct(101, "Smartphone X", "New smartphone",
			decimal.NewFromInt(199990), "Electronics", nil),
		headphones: domain.NewProduct(102, "Wireless Headphones", "Wireless headphones",
			decimal.NewFromInt(12990), "Accessories", nil),
	}
}

func (f *fixture) newCart(opts ...cart.Option) *cart.Cart {
	opts = append([]cart.Option{cart.WithClock(func() time.Time { return today })}, opts...)
	return cart.New(f.client, f.allocator, opts...)
}

func welcome10(t *testing.T, expires time.Time) *domain.DiscountRule {
	t.Helper()
	rule, err := domain.NewDiscountRule("WELCOME10", domain.DiscountPercentage, decimal.NewFromInt(10), expires)
	require.NoError(t, err)
	return rule
}

func TestCart_CheckoutWithPromo(t *testing.T) {
	f := newFixture(t)
	orderID := uuid.MustParse("6f1c3c8e-2b8e-4d55-9d7e-3f3e8f0b1a01")
	c := f.newCart(cart.WithIDGenerator(domain.IDGeneratorFunc(func() uuid.UUID { return orderID })))

	c.AddProduct(f.phone, 1)
	c.AddProduct(f.headphones, 2)
	require.NoError(t, c.ApplyDiscount(welcome10(t, today.AddDate(0, 0, 30))))

	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(225970)))
	assert.True(t, c.Total().Equal(decimal.NewFromInt(203373)))

	order, err := c.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, today, order.CreatedAt)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status())
	assert.True(t, order.Total().Equal(decimal.NewFromInt(225970)))
	assert.True(t, order.AmountDue().Equal(decimal.NewFromInt(203373)))
	require.NotNil(t, order.Discount())
	assert.Equal(t, "WELCOME10", order.Discount().Code)

	lines := order.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, domain.WarehouseID(1), lines[0].WarehouseID)
	assert.Equal(t, domain.WarehouseID(2), lines[1].WarehouseID)

	assert.Equal(t, 14, f.ledger.Get(1, 101))
	assert.Equal(t, 48, f.ledger.Get(2, 102))

	assert.Empty(t, c.Lines(), "checkout clears the cart")
	assert.Nil(t, c.Discount())
}

func TestCart_CheckoutFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()

	c.AddProduct(f.headphones, 2)
	c.AddProduct(f.phone, 20)
	before := f.ledger.Snapshot()

	order, err := c.Checkout(context.Background())
	assert.Nil(t, order)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, domain.ProductID(101), stockErr.ProductID)

	assert.Equal(t, before, f.ledger.Snapshot())
	assert.Equal(t, 15, f.ledger.Get(1, 101))
	assert.Equal(t, 50, f.ledger.Get(2, 102))
	assert.Equal(t, 0, f.allocator.Reserved(102))
	assert.Len(t, c.Lines(), 2, "a failed checkout keeps the cart")
}

func TestCart_CheckoutEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.newCart().Checkout(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCart_AddProductMergesAndIgnoresNonPositive(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()

	c.AddProduct(f.headphones, 1)
	c.AddProduct(f.phone, 1)
	c.AddProduct(f.headphones, 2)
	c.AddProduct(f.phone, 0)
	c.AddProduct(f.phone, -4)
	c.AddProduct(nil, 3)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, domain.ProductID(102), lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, domain.ProductID(101), lines[1].Product.ID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestCart_RemoveProduct(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()
	c.AddProduct(f.phone, 1)
	c.AddProduct(f.headphones, 1)

	assert.True(t, c.RemoveProduct(101))
	assert.False(t, c.RemoveProduct(101))

	c.AddProduct(f.headphones, 1)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestCart_ApplyDiscountBoundary(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()
	c.AddProduct(f.headphones, 2)

	require.NoError(t, c.ApplyDiscount(welcome10(t, today)), "a rule expiring today is still valid")
	assert.True(t, c.Total().Equal(decimal.NewFromInt(23382)))

	expired, err := domain.NewDiscountRule("OLD", domain.DiscountFixedAmount, decimal.NewFromInt(1000), today.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.ErrorIs(t, c.ApplyDiscount(expired), domain.ErrInvalidDiscount)
	assert.ErrorIs(t, c.ApplyDiscount(nil), domain.ErrInvalidDiscount)

	require.NotNil(t, c.Discount())
	assert.Equal(t, "WELCOME10", c.Discount().Code, "rejected rules keep the previous one")
}

func TestCart_ApplyDiscountNextDayRejected(t *testing.T) {
	f := newFixture(t)
	tomorrow := today.AddDate(0, 0, 1)
	c := f.newCart(cart.WithClock(func() time.Time { return tomorrow }))

	assert.ErrorIs(t, c.ApplyDiscount(welcome10(t, today)), domain.ErrInvalidDiscount)
	assert.Nil(t, c.Discount())
}

func TestCart_PromoExpiringBeforeCheckoutIsDropped(t *testing.T) {
	f := newFixture(t)
	clock := today
	c := f.newCart(cart.WithClock(func() time.Time { return clock }))
	c.AddProduct(f.headphones, 2)
	require.NoError(t, c.ApplyDiscount(welcome10(t, today)))
	require.True(t, c.Total().Equal(decimal.NewFromInt(23382)))

	clock = today.AddDate(0, 0, 1)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(25980)))

	order, err := c.Checkout(context.Background())
	require.NoError(t, err)
	assert.True(t, order.AmountDue().Equal(decimal.NewFromInt(25980)))
	assert.True(t, order.Total().Equal(decimal.NewFromInt(25980)))
	assert.Nil(t, order.Discount())
}

func TestCart_FixedDiscountClampsTotal(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()
	c.AddProduct(f.headphones, 1)

	big, err := domain.NewDiscountRule("BIG", domain.DiscountFixedAmount, decimal.NewFromInt(50000), today)
	require.NoError(t, err)
	require.NoError(t, c.ApplyDiscount(big))

	assert.True(t, c.Total().Equal(decimal.Zero))
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(12990)))
}

func TestCart_CheckoutHonoursDeadline(t *testing.T) {
	f := newFixture(t)
	c := f.newCart()
	c.AddProduct(f.phone, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Checkout(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 15, f.ledger.Get(1, 101))
}
