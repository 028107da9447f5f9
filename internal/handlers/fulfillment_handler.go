package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	sharedHTTP "github.com/distributed-ecommerce-saga/fulfillment-service/internal/http"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FulfillmentHandler struct {
	fulfillmentService *service.FulfillmentService
}

func NewFulfillmentHandler(fulfillmentService *service.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentService: fulfillmentService,
	}
}

func (h *FulfillmentHandler) HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Fulfillment service is healthy", map[string]interface{}{
		"service": "fulfillment-service",
		"status":  "healthy",
	})
}

func (h *FulfillmentHandler) CreateClient(c *fiber.Ctx) error {
	var request CreateClientRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	if strings.TrimSpace(request.Name) == "" {
		return sharedHTTP.BadRequestResponse(c, "Name is required", nil)
	}

	client := h.fulfillmentService.RegisterClient(request.Name, request.Email, request.Address, request.Phone)
	return sharedHTTP.CreatedResponse(c, "Client created successfully", mapClient(client))
}

func (h *FulfillmentHandler) GetClient(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid client ID", map[string]interface{}{
			"client_id": c.Params("id"),
		})
	}

	client, err := h.fulfillmentService.Client(domain.ClientID(id))
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Client retrieved successfully", mapClient(client))
}

func (h *FulfillmentHandler) OpenCart(c *fiber.Ctx) error {
	var request OpenCartRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	cart, err := h.fulfillmentService.OpenCart(domain.ClientID(request.ClientID))
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.CreatedResponse(c, "Cart created successfully", mapCart(cart))
}

func (h *FulfillmentHandler) GetCart(c *fiber.Ctx) error {
	cartID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid cart ID", map[string]interface{}{
			"cart_id": c.Params("id"),
		})
	}

	cart, err := h.fulfillmentService.Cart(cartID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart retrieved successfully", mapCart(cart))
}

func (h *FulfillmentHandler) AddItem(c *fiber.Ctx) error {
	cartID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid cart ID", map[string]interface{}{
			"cart_id": c.Params("id"),
		})
	}

	var request AddItemRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	// a non-positive quantity leaves the cart as it is
	cart, err := h.fulfillmentService.AddToCart(cartID, domain.ProductID(request.ProductID), request.Quantity)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item added to cart", mapCart(cart))
}

func (h *FulfillmentHandler) RemoveItem(c *fiber.Ctx) error {
	cartID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid cart ID", map[string]interface{}{
			"cart_id": c.Params("id"),
		})
	}
	productID, err := c.ParamsInt("productId")
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("productId"),
		})
	}

	cart, err := h.fulfillmentService.RemoveFromCart(cartID, domain.ProductID(productID))
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item removed from cart", mapCart(cart))
}

func (h *FulfillmentHandler) ApplyPromo(c *fiber.Ctx) error {
	cartID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid cart ID", map[string]interface{}{
			"cart_id": c.Params("id"),
		})
	}

	var request ApplyPromoRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	cart, err := h.fulfillmentService.ApplyPromo(cartID, request.Code)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Promo code applied", mapCart(cart))
}

func (h *FulfillmentHandler) Checkout(c *fiber.Ctx) error {
	cartID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid cart ID", map[string]interface{}{
			"cart_id": c.Params("id"),
		})
	}

	order, err := h.fulfillmentService.Checkout(c.UserContext(), cartID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.CreatedResponse(c, "Order placed successfully", mapOrder(order))
}

func (h *FulfillmentHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.fulfillmentService.GetOrder(orderID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order retrieved successfully", mapOrder(order))
}

func (h *FulfillmentHandler) PayOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	var request PayOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	method := domain.PaymentMethod(strings.ToUpper(request.Method))
	switch method {
	case domain.PaymentMethodCard, domain.PaymentMethodEWallet:
	default:
		return sharedHTTP.BadRequestResponse(c, "Invalid payment method", map[string]interface{}{
			"method": request.Method,
		})
	}

	payment, err := h.fulfillmentService.PayOrder(c.UserContext(), orderID, method)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotCompleted) && payment != nil {
			return sharedHTTP.PaymentRequiredResponse(c, "Payment not completed", map[string]interface{}{
				"payment": mapPayment(payment),
			})
		}
		return sharedHTTP.ErrorResponse(c, err)
	}

	order, err := h.fulfillmentService.GetOrder(orderID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order paid successfully", mapOrder(order))
}

func (h *FulfillmentHandler) CancelOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	var request CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
				"parse_error": err.Error(),
			})
		}
	}
	if request.Reason == "" {
		request.Reason = "cancelled by client"
	}

	order, err := h.fulfillmentService.CancelOrder(c.UserContext(), orderID, request.Reason)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order cancelled successfully", mapOrder(order))
}

func (h *FulfillmentHandler) ShipOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.fulfillmentService.ShipOrder(c.UserContext(), orderID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order shipped successfully", mapOrder(order))
}

func (h *FulfillmentHandler) DeliverOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.fulfillmentService.DeliverOrder(c.UserContext(), orderID)
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order delivered successfully", mapOrder(order))
}

func (h *FulfillmentHandler) GetStock(c *fiber.Ctx) error {
	warehouseID, err := c.ParamsInt("warehouseId")
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid warehouse ID", map[string]interface{}{
			"warehouse_id": c.Params("warehouseId"),
		})
	}
	productID, err := c.ParamsInt("productId")
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("productId"),
		})
	}

	qty, err := h.fulfillmentService.StockLevel(domain.WarehouseID(warehouseID), domain.ProductID(productID))
	if err != nil {
		return sharedHTTP.ErrorResponse(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Stock retrieved successfully", StockResponse{
		WarehouseID: int64(warehouseID),
		ProductID:   int64(productID),
		Quantity:    qty,
		Reserved:    h.fulfillmentService.Reserved(domain.ProductID(productID)),
	})
}

// HandleEvent applies payment outcomes delivered over the event bus.
func (h *FulfillmentHandler) HandleEvent(event messaging.Event) error {
	zap.S().Infof("Fulfillment service event received: %s from %s", event.EventType, event.Service)
	return h.fulfillmentService.HandleEvent(context.Background(), event)
}

func (h *FulfillmentHandler) StartConsuming(consumer *messaging.Consumer) error {
	routingKeys := []string{
		messaging.RoutingKey("payment-gateway", messaging.PaymentProcessedEvent),
		messaging.RoutingKey("payment-gateway", messaging.PaymentFailedEvent),
	}

	return consumer.ConsumeEvents(routingKeys, h.HandleEvent)
}
