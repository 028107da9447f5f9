package domain

import "github.com/shopspring/decimal"

// Product is supplied by the catalog and never mutated by carts or orders.
type Product struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	images      []string
}

func NewProduct(id ProductID, name, description string, price decimal.Decimal, category string, images []string) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		images:      append([]string(nil), images...),
	}
}

func (p *Product) Images() []string {
	return append([]string(nil), p.images...)
}

type Warehouse struct {
	ID       WarehouseID `json:"id"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
}
