package handlers

import "github.com/gofiber/fiber/v2"

func SetupRoutes(app *fiber.App, h *FulfillmentHandler) {
	api := app.Group("/api/v1")
	api.Get("/health", h.HealthCheck)

	clients := api.Group("/clients")
	clients.Post("/", h.CreateClient)
	clients.Get("/:id", h.GetClient)

	carts := api.Group("/carts")
	carts.Post("/", h.OpenCart)
	carts.Get("/:id", h.GetCart)
	carts.Post("/:id/items", h.AddItem)
	carts.Delete("/:id/items/:productId", h.RemoveItem)
	carts.Post("/:id/promo", h.ApplyPromo)
	carts.Post("/:id/checkout", h.Checkout)

	orders := api.Group("/orders")
	orders.Get("/:id", h.GetOrder)
	orders.Post("/:id/pay", h.PayOrder)
	orders.Post("/:id/cancel", h.CancelOrder)
	orders.Post("/:id/ship", h.ShipOrder)
	orders.Post("/:id/deliver", h.DeliverOrder)

	api.Get("/stock/:warehouseId/:productId", h.GetStock)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})
}
