package catalog

import (
	"fmt"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Seed loads the demo catalog: two warehouses, a phone stocked in the first
// and headphones stocked in the second.
func Seed(m *Memory, stock Stocker) error {
	warehouses := []domain.Warehouse{
		{ID: 1, Name: "Main warehouse", Location: "Almaty"},
		{ID: 2, Name: "Secondary warehouse", Location: "Shymkent"},
	}
	for _, w := range warehouses {
		m.AddWarehouse(w)
		stock.AddWarehouse(w)
	}

	phone := domain.NewProduct(101, "Smartphone X", "New smartphone",
		decimal.NewFromInt(199990), "Electronics", []string{"phone1.jpg"})
	headphones := domain.NewProduct(102, "Wireless Headphones", "Wireless headphones",
		decimal.NewFromInt(12990), "Accessories", []string{"hp1.jpg", "hp2.jpg"})
	m.AddProduct(phone)
	m.AddProduct(headphones)

	if err := stock.Add(1, phone.ID, 15); err != nil {
		return fmt.Errorf("seed stock: %w", err)
	}
	if err := stock.Add(2, headphones.ID, 50); err != nil {
		return fmt.Errorf("seed stock: %w", err)
	}
	return nil
}
