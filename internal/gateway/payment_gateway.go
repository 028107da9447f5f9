package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway external payment provider interface. Implementations move a
// pending record to COMPLETED or FAILED, and a completed one to REFUNDED.
type PaymentGateway interface {
	Process(ctx context.Context, payment *domain.PaymentRecord) error
	Refund(ctx context.Context, payment *domain.PaymentRecord) error
}

// DummyGateway approves every payment.
type DummyGateway struct {
	Now func() time.Time
}

func NewDummyGateway() *DummyGateway {
	return &DummyGateway{Now: time.Now}
}

func (g *DummyGateway) Process(ctx context.Context, payment *domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	zap.S().Infof("Payment processed: PaymentID=%s, Amount=%s", payment.ID, payment.Amount.String())
	return payment.Complete(transactionID(), g.Now())
}

func (g *DummyGateway) Refund(ctx context.Context, payment *domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	zap.S().Infof("Payment refunded: PaymentID=%s", payment.ID)
	return payment.Refund(g.Now())
}

// MockGateway fails a configurable share of payments.
type MockGateway struct {
	FailureRate float64 // 0.0 - 1.0
	Now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockGateway(failureRate float64, seed int64) *MockGateway {
	return &MockGateway{
		FailureRate: failureRate,
		Now:         time.Now,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (m *MockGateway) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Float64()
}

func (m *MockGateway) Process(ctx context.Context, payment *domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	zap.S().Infof("Mock Payment Gateway: Processing payment for Order %s, Amount: %s",
		payment.OrderID, payment.Amount.String())

	if m.roll() < m.FailureRate {
		return payment.Fail("Insufficient funds", m.Now())
	}
	return payment.Complete(transactionID(), m.Now())
}

func (m *MockGateway) Refund(ctx context.Context, payment *domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	zap.S().Infof("Mock Payment Gateway: Processing refund for Transaction %s, Amount: %s",
		payment.TransactionID, payment.Amount.String())

	if m.roll() < m.FailureRate*0.5 {
		return fmt.Errorf("refund not allowed for transaction %s", payment.TransactionID)
	}
	return payment.Refund(m.Now())
}

func transactionID() string {
	return fmt.Sprintf("TXN_%s", uuid.New().String()[:8])
}
