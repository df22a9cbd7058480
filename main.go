package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pasarumkm/internal/config"
	"pasarumkm/internal/gateway"
	"pasarumkm/internal/handlers"
	"pasarumkm/internal/middleware"
	"pasarumkm/internal/models"
	"pasarumkm/internal/repositories"
	"pasarumkm/internal/services"
	"pasarumkm/pkg/logging"
	"pasarumkm/pkg/rabbitmq"
)

// NewApp builds the Fiber application from its collaborators. Kept separate
// from main so integration tests can assemble the app with test doubles.
func NewApp(cfg *config.Config, orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, gw services.InvoiceGateway, publisher services.EventPublisher) *fiber.App {
	checkoutService := services.NewCheckoutService(orderRepo, gw, publisher)
	paymentService := services.NewPaymentService(orderRepo, cartRepo, gw, publisher)
	orderService := services.NewOrderService(orderRepo)

	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewPaymentWebhookHandler(paymentService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")

	// Checkout and the gateway callback authenticate themselves (the latter
	// by callback token); order reads require a token from the identity
	// provider.
	checkoutHandler.RegisterRoutes(apiV1)
	webhookHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(cfg.JWTSecret))
	orderHandler.RegisterRoutes(protected)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

func main() {
	zlog := logging.GetSugaredLogger()
	defer zlog.Sync()

	cfg := config.Load()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		zlog.Fatalw("failed to connect to database", "error", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.CartItem{}); err != nil {
		zlog.Fatalw("failed to migrate database", "error", err)
	}

	orderRepo := repositories.NewGORMOrderRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)

	// --- Payment gateway client ---
	gw := gateway.NewClient(cfg.XenditBaseURL, cfg.XenditAPIKey, cfg.XenditCallbackToken, cfg.GatewayTimeout)

	// --- RabbitMQ (optional: events are best-effort) ---
	var publisher services.EventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		zlog.Warnw("RabbitMQ unavailable, order events disabled", "error", err)
	} else {
		defer mqClient.Close()
		publisher = mqClient

		// Drain order events for visibility until dedicated consumers own
		// this queue.
		if consumerErr := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			zlog.Infow("order event received", "type", msg.Type, "body", string(msg.Body))
			return nil
		}); consumerErr != nil {
			zlog.Warnw("failed to start order events consumer", "error", consumerErr)
		}
	}

	app := NewApp(cfg, orderRepo, cartRepo, gw, publisher)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Infow("starting server", "port", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			zlog.Fatalw("server failed to start", "error", err)
		}
	}()

	<-quit
	zlog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		zlog.Errorw("error during shutdown", "error", err)
	}
	zlog.Info("server gracefully stopped")
}
