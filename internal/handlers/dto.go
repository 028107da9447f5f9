package handlers

import (
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/cart"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type OpenCartRequest struct {
	ClientID int64 `json:"client_id"`
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ApplyPromoRequest struct {
	Code string `json:"code"`
}

type PayOrderRequest struct {
	Method string `json:"method"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type ClientResponse struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Address       string      `json:"address"`
	Phone         string      `json:"phone"`
	LoyaltyPoints int64       `json:"loyalty_points"`
	OrderHistory  []uuid.UUID `json:"order_history"`
}

type CartResponse struct {
	ID           uuid.UUID          `json:"id"`
	ClientID     int64              `json:"client_id"`
	Items        []CartItemResponse `json:"items"`
	DiscountCode string             `json:"discount_code,omitempty"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Total        decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	ClientID     int64               `json:"client_id"`
	Items        []OrderItemResponse `json:"items"`
	Total        decimal.Decimal     `json:"total"`
	AmountDue    decimal.Decimal     `json:"amount_due"`
	DiscountCode string              `json:"discount_code,omitempty"`
	Status       string              `json:"status"`
	Payment      *PaymentResponse    `json:"payment,omitempty"`
	Delivery     *domain.Delivery    `json:"delivery,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	WarehouseID int64           `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

type StockResponse struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int   `json:"quantity"`
	Reserved    int   `json:"reserved"`
}

func mapClient(c *domain.Client) ClientResponse {
	history := c.OrderHistory()
	ids := make([]uuid.UUID, len(history))
	for i, o := range history {
		ids[i] = o.ID
	}
	return ClientResponse{
		ID:            int64(c.ID),
		Name:          c.Name,
		Email:         c.Email,
		Address:       c.Address,
		Phone:         c.Phone,
		LoyaltyPoints: c.Loyalty.Balance(),
		OrderHistory:  ids,
	}
}

func mapCart(c *cart.Cart) CartResponse {
	lines := c.Lines()
	items := make([]CartItemResponse, len(lines))
	for i, l := range lines {
		items[i] = CartItemResponse{
			ProductID: int64(l.Product.ID),
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
			Subtotal:  l.Subtotal(),
		}
	}

	response := CartResponse{
		ID:       c.ID,
		ClientID: int64(c.Client.ID),
		Items:    items,
		Subtotal: c.Subtotal(),
		Total:    c.Total(),
	}
	if d := c.Discount(); d != nil {
		response.DiscountCode = d.Code
	}
	return response
}

func mapOrder(o *domain.Order) OrderResponse {
	lines := o.Lines()
	items := make([]OrderItemResponse, len(lines))
	for i, l := range lines {
		items[i] = OrderItemResponse{
			ProductID:   int64(l.ProductID),
			Name:        l.ProductName,
			WarehouseID: int64(l.WarehouseID),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	response := OrderResponse{
		ID:        o.ID,
		Items:     items,
		Total:     o.Total(),
		AmountDue: o.AmountDue(),
		Status:    string(o.Status()),
		Delivery:  o.Delivery(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt(),
	}
	if o.Client != nil {
		response.ClientID = int64(o.Client.ID)
	}
	if d := o.Discount(); d != nil {
		response.DiscountCode = d.Code
	}
	if p := o.Payment(); p != nil {
		pr := mapPayment(p)
		response.Payment = &pr
	}
	return response
}

func mapPayment(p *domain.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        string(p.Method),
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
	}
}
