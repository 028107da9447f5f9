package catalog

import (
	"testing"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	m := NewMemory()
	ledger := inventory.NewStockLedger()
	require.NoError(t, Seed(m, ledger))

	products := m.Products()
	require.Len(t, products, 2)
	assert.Equal(t, domain.ProductID(101), products[0].ID)
	assert.Equal(t, domain.ProductID(102), products[1].ID)

	w, ok := m.Warehouse(1)
	require.True(t, ok)
	assert.Equal(t, "Almaty", w.Location)

	assert.Equal(t, 15, ledger.Get(1, 101))
	assert.Equal(t, 50, ledger.Get(2, 102))
	assert.Equal(t, 0, ledger.Get(2, 101))
}

func TestMemory_ProductNotFound(t *testing.T) {
	_, err := NewMemory().Product(404)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMemory_ImagesAreCopied(t *testing.T) {
	m := NewMemory()
	require.NoError(t, Seed(m, inventory.NewStockLedger()))

	p, err := m.Product(102)
	require.NoError(t, err)
	images := p.Images()
	images[0] = "tampered.jpg"
	assert.Equal(t, "hp1.jpg", p.Images()[0])
}
