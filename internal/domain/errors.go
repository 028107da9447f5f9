package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidDiscount     = errors.New("discount rule is invalid or expired")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrUnknownWarehouse    = errors.New("unknown warehouse")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrCartNotFound        = errors.New("cart not found")
	ErrInvalidPayment      = errors.New("invalid payment transition")
	ErrAlreadyPaid         = errors.New("order already paid")
	ErrPaymentPending      = errors.New("a payment for this order is still pending")
)

// InsufficientStockError names the product no single warehouse could cover.
type InsufficientStockError struct {
	ProductID ProductID
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product=%d, requested=%d", e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransitionError reports a rejected order state change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
