package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
)

// Cell addresses one (warehouse, product) stock quantity.
type Cell struct {
	WarehouseID domain.WarehouseID
	ProductID   domain.ProductID
}

type cell struct {
	mu  sync.Mutex
	qty int
}

// StockLedger is the source of truth for availability. Each cell carries its
// own lock; the ledger-wide lock only guards the cell index.
type StockLedger struct {
	mu         sync.RWMutex
	warehouses map[domain.WarehouseID]domain.Warehouse
	order      []domain.WarehouseID
	cells      map[Cell]*cell
}

func NewStockLedger() *StockLedger {
	return &StockLedger{
		warehouses: make(map[domain.WarehouseID]domain.Warehouse),
		cells:      make(map[Cell]*cell),
	}
}

func (l *StockLedger) AddWarehouse(w domain.Warehouse) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.warehouses[w.ID]; !exists {
		l.order = append(l.order, w.ID)
		sort.Slice(l.order, func(i, j int) bool { return l.order[i] < l.order[j] })
	}
	l.warehouses[w.ID] = w
}

// Warehouses returns every registered warehouse in ascending id order.
func (l *StockLedger) Warehouses() []domain.Warehouse {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Warehouse, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.warehouses[id])
	}
	return out
}

func (l *StockLedger) warehouseIDs() []domain.WarehouseID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.WarehouseID(nil), l.order...)
}

func (l *StockLedger) HasWarehouse(id domain.WarehouseID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.warehouses[id]
	return ok
}

func (l *StockLedger) lookup(key Cell) *cell {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cells[key]
}

func (l *StockLedger) getOrCreate(key Cell) (*cell, error) {
	if c := l.lookup(key); c != nil {
		return c, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.warehouses[key.WarehouseID]; !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownWarehouse, key.WarehouseID)
	}
	if c, ok := l.cells[key]; ok {
		return c, nil
	}
	c := &cell{}
	l.cells[key] = c
	return c, nil
}

func (l *StockLedger) Get(warehouseID domain.WarehouseID, productID domain.ProductID) int {
	c := l.lookup(Cell{WarehouseID: warehouseID, ProductID: productID})
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty
}

// Add stocks a warehouse. It is the only entry point for catalog input and
// validates instead of panicking.
func (l *StockLedger) Add(warehouseID domain.WarehouseID, productID domain.ProductID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	c, err := l.getOrCreate(Cell{WarehouseID: warehouseID, ProductID: productID})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.qty += qty
	c.mu.Unlock()
	return nil
}

// TryDecrement removes qty only when the cell holds at least qty.
func (l *StockLedger) TryDecrement(warehouseID domain.WarehouseID, productID domain.ProductID, qty int) bool {
	if qty <= 0 {
		panic(fmt.Sprintf("inventory: TryDecrement with non-positive quantity %d", qty))
	}
	c := l.lookup(Cell{WarehouseID: warehouseID, ProductID: productID})
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.qty < qty {
		return false
	}
	c.qty -= qty
	return true
}

// Increment undoes a prior successful TryDecrement on the same cell.
func (l *StockLedger) Increment(warehouseID domain.WarehouseID, productID domain.ProductID, qty int) {
	if qty <= 0 {
		panic(fmt.Sprintf("inventory: Increment with non-positive quantity %d", qty))
	}
	c, err := l.getOrCreate(Cell{WarehouseID: warehouseID, ProductID: productID})
	if err != nil {
		panic(fmt.Sprintf("inventory: compensating increment: %v", err))
	}
	c.mu.Lock()
	c.qty += qty
	c.mu.Unlock()
}

// Snapshot copies every cell. Cells are read one at a time, so the copy is
// only consistent while no reservation is in flight.
func (l *StockLedger) Snapshot() map[Cell]int {
	l.mu.RLock()
	keys := make([]Cell, 0, len(l.cells))
	cells := make([]*cell, 0, len(l.cells))
	for k, c := range l.cells {
		keys = append(keys, k)
		cells = append(cells, c)
	}
	l.mu.RUnlock()

	out := make(map[Cell]int, len(keys))
	for i, c := range cells {
		c.mu.Lock()
		out[keys[i]] = c.qty
		c.mu.Unlock()
	}
	return out
}
