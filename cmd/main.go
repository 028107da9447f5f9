package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/catalog"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/config"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/courier"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/gateway"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/handlers"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/inventory"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/logging"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logging.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("Logger init error: %v", err)
	}
	defer zlog.Sync()

	zap.S().Info("Starting Fulfillment Service...")

	products := catalog.NewMemory()
	ledger := inventory.NewStockLedger()
	if err := loadCatalog(cfg, products, ledger); err != nil {
		zap.S().Fatalf("Catalog load error: %v", err)
	}
	allocator := inventory.NewAllocator(ledger)

	var publisher messaging.EventPublisher = messaging.LogPublisher{}
	var consumer *messaging.Consumer
	if cfg.MessagingEnabled {
		rabbitClient := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
		if err := rabbitClient.Connect(); err != nil {
			zap.S().Fatalf("RabbitMQ connection error: %v", err)
		}
		defer rabbitClient.Close()

		publisher = messaging.NewPublisher(rabbitClient)
		consumer = messaging.NewConsumer(rabbitClient, "fulfillment-service-queue", "fulfillment-service")
	}

	var paymentGateway gateway.PaymentGateway = gateway.NewDummyGateway()
	if cfg.PaymentFailureRate > 0 {
		paymentGateway = gateway.NewMockGateway(cfg.PaymentFailureRate, time.Now().UnixNano())
	}

	fulfillmentService := service.NewFulfillmentService(
		products,
		allocator,
		paymentGateway,
		courier.NewEventCourier(publisher),
		publisher,
		service.WithRestockOnCancel(cfg.RestockOnCancel),
		service.WithReserveTimeout(cfg.ReserveTimeout),
		service.WithPublishRetries(cfg.RabbitMQ.RetryCount),
	)
	if err := registerPromos(fulfillmentService); err != nil {
		zap.S().Fatalf("Promo setup error: %v", err)
	}

	fulfillmentHandler := handlers.NewFulfillmentHandler(fulfillmentService)

	app := setupFiberApp()
	handlers.SetupRoutes(app, fulfillmentHandler)

	if consumer != nil {
		zap.S().Info("Starting RabbitMQ event consumption...")
		if err := fulfillmentHandler.StartConsuming(consumer); err != nil {
			zap.S().Errorf("RabbitMQ consumption error: %v", err)
		}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zap.S().Info("Shutting down Fulfillment Service...")
		if err := app.Shutdown(); err != nil {
			zap.S().Errorf("Shutdown error: %v", err)
		}
	}()

	zap.S().Infof("Fulfillment Service running on: http://localhost:%s", cfg.Port)

	if err := app.Listen(":" + cfg.Port); err != nil {
		zap.S().Fatalf("Server startup error: %v", err)
	}
}

func loadCatalog(cfg *config.Config, products *catalog.Memory, ledger *inventory.StockLedger) error {
	if cfg.CatalogSource != config.CatalogSourcePostgres {
		return catalog.Seed(products, ledger)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return catalog.NewPostgresLoader(db).Load(ctx, products, ledger)
}

func initDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database open error: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping error: %w", err)
	}

	zap.S().Infof("Database connection successful: %s", cfg.Name)
	return db, nil
}

func registerPromos(s *service.FulfillmentService) error {
	welcome, err := domain.NewDiscountRule("WELCOME10", domain.DiscountPercentage,
		decimal.NewFromInt(10), time.Now().AddDate(0, 0, 30))
	if err != nil {
		return err
	}
	s.RegisterPromo(welcome)
	return nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Fulfillment Service v1.0",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	zap.S().Errorf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"success":   false,
		"message":   message,
		"error":     err.Error(),
		"timestamp": time.Now(),
	})
}
