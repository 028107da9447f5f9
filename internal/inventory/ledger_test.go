package inventory_test

import (
	"testing"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *inventory.StockLedger {
	t.Helper()
	l := inventory.NewStockLedger()
	l.AddWarehouse(domain.Warehouse{ID: 2, Name: "Secondary", Location: "Shymkent"})
	l.AddWarehouse(domain.Warehouse{ID: 1, Name: "Main", Location: "Almaty"})
	return l
}

func TestStockLedger_WarehousesSorted(t *testing.T) {
	l := newLedger(t)
	l.AddWarehouse(domain.Warehouse{ID: 1, Name: "Main (renamed)", Location: "Almaty"})

	ws := l.Warehouses()
	require.Len(t, ws, 2)
	assert.Equal(t, domain.WarehouseID(1), ws[0].ID)
	assert.Equal(t, "Main (renamed)", ws[0].Name)
	assert.Equal(t, domain.WarehouseID(2), ws[1].ID)
}

func TestStockLedger_AddAndGet(t *testing.T) {
	l := newLedger(t)

	assert.Equal(t, 0, l.Get(1, 101))
	require.NoError(t, l.Add(1, 101, 10))
	require.NoError(t, l.Add(1, 101, 5))
	assert.Equal(t, 15, l.Get(1, 101))
	assert.Equal(t, 0, l.Get(2, 101))
}

func TestStockLedger_AddRejectsBadInput(t *testing.T) {
	l := newLedger(t)

	assert.ErrorIs(t, l.Add(1, 101, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, l.Add(1, 101, -3), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, l.Add(9, 101, 1), domain.ErrUnknownWarehouse)
	assert.Empty(t, l.Snapshot())
}

func TestStockLedger_TryDecrement(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Add(1, 101, 3))

	assert.False(t, l.TryDecrement(1, 101, 4))
	assert.Equal(t, 3, l.Get(1, 101))

	assert.True(t, l.TryDecrement(1, 101, 3))
	assert.Equal(t, 0, l.Get(1, 101))

	assert.False(t, l.TryDecrement(1, 101, 1))
	assert.False(t, l.TryDecrement(2, 999, 1), "missing cell")
}

func TestStockLedger_IncrementInvertsDecrement(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Add(2, 102, 50))

	require.True(t, l.TryDecrement(2, 102, 2))
	l.Increment(2, 102, 2)
	assert.Equal(t, 50, l.Get(2, 102))
}

func TestStockLedger_NonPositiveQuantityPanics(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Add(1, 101, 1))

	assert.Panics(t, func() { l.TryDecrement(1, 101, 0) })
	assert.Panics(t, func() { l.Increment(1, 101, -1) })
	assert.Equal(t, 1, l.Get(1, 101))
}

func TestStockLedger_Snapshot(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Add(1, 101, 15))
	require.NoError(t, l.Add(2, 102, 50))

	snap := l.Snapshot()
	assert.Equal(t, map[inventory.Cell]int{
		{WarehouseID: 1, ProductID: 101}: 15,
		{WarehouseID: 2, ProductID: 102}: 50,
	}, snap)

	snap[inventory.Cell{WarehouseID: 1, ProductID: 101}] = 0
	assert.Equal(t, 15, l.Get(1, 101), "snapshot is a copy")
}
