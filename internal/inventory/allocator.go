package inventory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"go.uber.org/zap"
)

// Reservation is the handle returned by Reserve. Releasing it returns the
// exact quantity to the exact cell it came from.
type Reservation struct {
	warehouseID domain.WarehouseID
	productID   domain.ProductID
	quantity    int

	allocator *Allocator
	settled   atomic.Bool
}

func (r *Reservation) WarehouseID() domain.WarehouseID { return r.warehouseID }
func (r *Reservation) ProductID() domain.ProductID     { return r.productID }
func (r *Reservation) Quantity() int                   { return r.quantity }
func (r *Reservation) Settled() bool                   { return r.settled.Load() }

// Allocator fulfils each request from exactly one warehouse.
type Allocator struct {
	ledger *StockLedger

	mu       sync.Mutex
	reserved map[domain.ProductID]int
}

func NewAllocator(ledger *StockLedger) *Allocator {
	return &Allocator{
		ledger:   ledger,
		reserved: make(map[domain.ProductID]int),
	}
}

func (a *Allocator) Ledger() *StockLedger {
	return a.ledger
}

// Reserve decrements the first warehouse, in ascending id order, that can
// cover qty on its own. On failure the ledger is untouched.
func (a *Allocator) Reserve(ctx context.Context, productID domain.ProductID, qty int) (*Reservation, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reserve product %d: %w", productID, domain.ErrInvalidQuantity)
	}

	for _, warehouseID := range a.ledger.warehouseIDs() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reserve product %d: %w", productID, err)
		}
		if !a.ledger.TryDecrement(warehouseID, productID, qty) {
			continue
		}

		a.track(productID, qty)
		zap.S().Debugf("Stock reserved: product=%d, warehouse=%d, qty=%d", productID, warehouseID, qty)

		return &Reservation{
			warehouseID: warehouseID,
			productID:   productID,
			quantity:    qty,
			allocator:   a,
		}, nil
	}

	return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty}
}

// Release is the compensating step for Reserve. A handle from another
// allocator, or one already released, means the caller broke the pairing
// contract and the ledger can no longer be trusted.
func (a *Allocator) Release(handle domain.StockReservation) {
	r := a.own(handle)
	if !r.settled.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("inventory: reservation settled twice: product=%d, warehouse=%d", r.productID, r.warehouseID))
	}

	a.ledger.Increment(r.warehouseID, r.productID, r.quantity)
	a.track(r.productID, -r.quantity)
	zap.S().Debugf("Stock released: product=%d, warehouse=%d, qty=%d", r.productID, r.warehouseID, r.quantity)
}

// Commit finalizes a reservation as sold: the stock stays out of the ledger
// and the handle can no longer be released.
func (a *Allocator) Commit(handle domain.StockReservation) {
	r := a.own(handle)
	if !r.settled.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("inventory: reservation committed after release: product=%d, warehouse=%d", r.productID, r.warehouseID))
	}
	a.track(r.productID, -r.quantity)
}

func (a *Allocator) CommitAll(handles []domain.StockReservation) {
	for _, h := range handles {
		a.Commit(h)
	}
}

func (a *Allocator) own(handle domain.StockReservation) *Reservation {
	r, ok := handle.(*Reservation)
	if !ok || r == nil || r.allocator != a {
		panic(fmt.Sprintf("inventory: reservation not issued by this allocator: %T", handle))
	}
	return r
}

// Reserved is the advisory running total of outstanding reservations for a
// product. It is diagnostic only; the ledger is authoritative.
func (a *Allocator) Reserved(productID domain.ProductID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reserved[productID]
}

func (a *Allocator) track(productID domain.ProductID, delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.reserved[productID] + delta
	if n < 0 {
		n = 0
	}
	a.reserved[productID] = n
}
