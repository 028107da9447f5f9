package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	selectWarehouses = `SELECT id, name, location FROM warehouses ORDER BY id`
	selectProducts   = `SELECT id, name, description, price, category, images FROM products ORDER BY id`
	selectStock      = `SELECT warehouse_id, product_id, quantity FROM stock WHERE quantity > 0 ORDER BY warehouse_id, product_id`
)

// PostgresLoader reads the admin-managed catalog once at startup. It never
// writes; orders and stock movements live in memory.
type PostgresLoader struct {
	db *sql.DB
}

func NewPostgresLoader(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

func (l *PostgresLoader) Load(ctx context.Context, m *Memory, stock Stocker) error {
	warehouses, err := l.loadWarehouses(ctx)
	if err != nil {
		return err
	}
	for _, w := range warehouses {
		m.AddWarehouse(w)
		stock.AddWarehouse(w)
	}

	products, err := l.loadProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		m.AddProduct(p)
	}

	rows, err := l.db.QueryContext(ctx, selectStock)
	if err != nil {
		return fmt.Errorf("stock query error: %w", err)
	}
	defer rows.Close()

	cells := 0
	for rows.Next() {
		var warehouseID, productID int64
		var quantity int
		if err := rows.Scan(&warehouseID, &productID, &quantity); err != nil {
			return fmt.Errorf("stock scan error: %w", err)
		}
		if _, err := m.Product(domain.ProductID(productID)); err != nil {
			return fmt.Errorf("stock row for warehouse %d: %w", warehouseID, err)
		}
		if err := stock.Add(domain.WarehouseID(warehouseID), domain.ProductID(productID), quantity); err != nil {
			return fmt.Errorf("stock row for product %d: %w", productID, err)
		}
		cells++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stock rows error: %w", err)
	}

	zap.S().Infof("Catalog loaded: warehouses=%d, products=%d, stock cells=%d",
		len(warehouses), len(products), cells)
	return nil
}

func (l *PostgresLoader) loadWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	rows, err := l.db.QueryContext(ctx, selectWarehouses)
	if err != nil {
		return nil, fmt.Errorf("warehouse query error: %w", err)
	}
	defer rows.Close()

	var warehouses []domain.Warehouse
	for rows.Next() {
		var id int64
		var w domain.Warehouse
		if err := rows.Scan(&id, &w.Name, &w.Location); err != nil {
			return nil, fmt.Errorf("warehouse scan error: %w", err)
		}
		w.ID = domain.WarehouseID(id)
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (l *PostgresLoader) loadProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := l.db.QueryContext(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("product query error: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var (
			id                          int64
			name, description, category string
			price                       decimal.Decimal
			images                      []string
		)
		if err := rows.Scan(&id, &name, &description, &price, &category, pq.Array(&images)); err != nil {
			return nil, fmt.Errorf("product scan error: %w", err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %d has negative price %s", id, price)
		}
		products = append(products, domain.NewProduct(domain.ProductID(id), name, description, price, category, images))
	}
	return products, rows.Err()
}
