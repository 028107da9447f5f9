package http

import (
	"errors"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, fiber.StatusOK, message, data)
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, fiber.StatusCreated, message, data)
}

func BadRequestResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return failure(c, fiber.StatusBadRequest, "BAD_REQUEST", message, details)
}

func NotFoundResponse(c *fiber.Ctx, message string) error {
	return failure(c, fiber.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return failure(c, fiber.StatusConflict, "CONFLICT", message, details)
}

func PaymentRequiredResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return failure(c, fiber.StatusPaymentRequired, "PAYMENT_REQUIRED", message, details)
}

func InternalServerErrorResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return failure(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, details)
}

// ErrorResponse maps a domain error onto the matching status code.
func ErrorResponse(c *fiber.Ctx, err error) error {
	details := map[string]interface{}{"error": err.Error()}

	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		details["product_id"] = stockErr.ProductID
		details["requested"] = stockErr.Requested
		return failure(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", "Insufficient stock", details)
	case errors.Is(err, domain.ErrInvalidDiscount):
		return failure(c, fiber.StatusBadRequest, "INVALID_DISCOUNT", "Invalid promo code", details)
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		return PaymentRequiredResponse(c, "Payment not completed", details)
	case errors.Is(err, domain.ErrPaymentPending):
		return failure(c, fiber.StatusConflict, "PAYMENT_PENDING", "Payment still pending", details)
	case errors.Is(err, domain.ErrAlreadyPaid):
		return failure(c, fiber.StatusConflict, "ALREADY_PAID", "Order already paid", details)
	case errors.Is(err, domain.ErrInvalidTransition):
		return failure(c, fiber.StatusConflict, "INVALID_TRANSITION", "Invalid order status transition", details)
	case errors.Is(err, domain.ErrEmptyCart):
		return BadRequestResponse(c, "Cart is empty", details)
	case errors.Is(err, domain.ErrInvalidQuantity):
		return BadRequestResponse(c, "Invalid quantity", details)
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrClientNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrUnknownWarehouse):
		return NotFoundResponse(c, err.Error())
	default:
		return InternalServerErrorResponse(c, "Internal Server Error", details)
	}
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	})
}

func failure(c *fiber.Ctx, status int, code, message string, details map[string]interface{}) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	})
}

func getRequestID(c *fiber.Ctx) string {
	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Set("X-Request-ID", requestID)
	}
	return requestID
}
