package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "CARD"
	PaymentMethodEWallet PaymentMethod = "E_WALLET"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentRecord is created PENDING by the checkout flow and moved on by the
// payment gateway.
type PaymentRecord struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Method        PaymentMethod   `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewPaymentRecord(id, orderID uuid.UUID, method PaymentMethod, amount decimal.Decimal, now time.Time) *PaymentRecord {
	return &PaymentRecord{
		ID:        id,
		OrderID:   orderID,
		Method:    method,
		Amount:    amount,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *PaymentRecord) Complete(transactionID string, now time.Time) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPayment, p.Status, PaymentStatusCompleted)
	}
	p.Status = PaymentStatusCompleted
	p.TransactionID = transactionID
	p.UpdatedAt = now
	return nil
}

func (p *PaymentRecord) Fail(reason string, now time.Time) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPayment, p.Status, PaymentStatusFailed)
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = now
	return nil
}

func (p *PaymentRecord) Refund(now time.Time) error {
	if !p.CanRefund() {
		return fmt.Errorf("%w: only completed payments can be refunded, current status: %s", ErrInvalidPayment, p.Status)
	}
	p.Status = PaymentStatusRefunded
	p.UpdatedAt = now
	return nil
}

func (p *PaymentRecord) CanRefund() bool {
	return p.Status == PaymentStatusCompleted
}

func (p *PaymentRecord) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
