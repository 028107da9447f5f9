package domain_test

import (
	"testing"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment() *domain.PaymentRecord {
	return domain.NewPaymentRecord(uuid.New(), uuid.New(), domain.PaymentMethodCard,
		decimal.NewFromInt(203373), time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC))
}

func TestPaymentRecord_CompleteAndRefund(t *testing.T) {
	p := newPayment()
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.False(t, p.CanRefund())

	later := p.CreatedAt.Add(time.Minute)
	require.NoError(t, p.Complete("TXN_1234", later))
	assert.True(t, p.IsCompleted())
	assert.Equal(t, "TXN_1234", p.TransactionID)
	assert.Equal(t, later, p.UpdatedAt)

	require.NoError(t, p.Refund(later.Add(time.Hour)))
	assert.Equal(t, domain.PaymentStatusRefunded, p.Status)
	assert.ErrorIs(t, p.Refund(later), domain.ErrInvalidPayment)
}

func TestPaymentRecord_FailIsTerminal(t *testing.T) {
	p := newPayment()

	require.NoError(t, p.Fail("Insufficient funds", p.CreatedAt))
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)
	assert.Equal(t, "Insufficient funds", p.FailureReason)

	assert.ErrorIs(t, p.Complete("TXN_1", p.CreatedAt), domain.ErrInvalidPayment)
	assert.ErrorIs(t, p.Refund(p.CreatedAt), domain.ErrInvalidPayment)
	assert.ErrorIs(t, p.Fail("again", p.CreatedAt), domain.ErrInvalidPayment)
}
