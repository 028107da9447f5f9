package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
)

// Stocker receives warehouses and initial stock from a catalog source.
type Stocker interface {
	AddWarehouse(w domain.Warehouse)
	Add(warehouseID domain.WarehouseID, productID domain.ProductID, qty int) error
}

// Memory holds the products and warehouses the core reads. The core never
// mutates what it gets from here.
type Memory struct {
	mu         sync.RWMutex
	products   map[domain.ProductID]*domain.Product
	warehouses map[domain.WarehouseID]domain.Warehouse
}

func NewMemory() *Memory {
	return &Memory{
		products:   make(map[domain.ProductID]*domain.Product),
		warehouses: make(map[domain.WarehouseID]domain.Warehouse),
	}
}

func (m *Memory) AddProduct(p *domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *Memory) AddWarehouse(w domain.Warehouse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warehouses[w.ID] = w
}

func (m *Memory) Product(id domain.ProductID) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func (m *Memory) Products() []*domain.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) Warehouse(id domain.WarehouseID) (domain.Warehouse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.warehouses[id]
	return w, ok
}

func (m *Memory) Warehouses() []domain.Warehouse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Warehouse, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
