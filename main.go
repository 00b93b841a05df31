package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crackerstore/internal/config"
	"crackerstore/internal/coupon"
	"crackerstore/internal/handlers"
	"crackerstore/internal/metrics"
	"crackerstore/internal/middleware"
	"crackerstore/internal/models"
	"crackerstore/internal/orderapi"
	"crackerstore/internal/repositories"
	"crackerstore/internal/services"
	"crackerstore/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to open database")
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ unavailable, order events disabled")
		} else {
			publisher = mqClient
			defer mqClient.Close()
		}
	}

	m := metrics.New()
	srv := newServer(cfg, db, publisher, m)

	// Prime the catalogue cache; the last persisted copy is served if this fails.
	refreshCtx, cancel := context.WithTimeout(context.Background(), cfg.OrderAPITimeout)
	if n, err := srv.products.Refresh(refreshCtx); err != nil {
		log.Warn().Err(err).Msg("Initial catalogue refresh failed")
	} else {
		log.Info().Int("products", n).Msg("Catalogue loaded")
	}
	cancel()

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Info().Msg("Starting RabbitMQ consumer for order events...")
			if consumerErr := mqClient.ConsumeOrderEvents(rabbitmq.HandleOrderMessage); consumerErr != nil {
				log.Error().Err(consumerErr).Msg("Failed to start RabbitMQ consumer")
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Info().Str("port", cfg.AppPort).Msg("Starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("Shutting down server...")

	if err := srv.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Error during Fiber shutdown")
	}
	srv.sessions.CloseAll()

	log.Info().Msg("Server gracefully stopped")
}

// openDatabase connects to the configured database and migrates the tables
// the service owns.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Product{}, &models.CartRecord{}, &models.AdminSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// server is the wired application.
type server struct {
	app      *fiber.App
	products *services.ProductService
	sessions *services.SessionService
}

// newServer wires repositories, services and handlers into a Fiber app.
// publisher may be nil when no broker is configured.
func newServer(cfg config.Config, db *gorm.DB, publisher services.EventPublisher, m *metrics.Metrics) *server {
	// --- Initialize Backend Client ---
	api := orderapi.NewClient(orderapi.Config{
		BaseURL: cfg.OrderAPIBaseURL,
		Timeout: cfg.OrderAPITimeout,
	})

	// --- Initialize Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	adminSessionRepo := repositories.NewGORMAdminSessionRepository(db)

	// --- Initialize Services ---
	productService := services.NewProductService(api, productRepo, m)
	authService := services.NewAuthService(api, adminSessionRepo, cfg.JWTSecret)
	orderService := services.NewOrderService(api, authService, publisher, m)
	sessionService := services.NewSessionService(cartRepo, api, services.SessionOptions{
		Coupons:   coupon.NewEngine(cfg.CouponCodes),
		Publisher: publisher,
		Metrics:   m,
	})

	// --- Initialize Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(sessionService, productService)
	checkoutHandler := handlers.NewCheckoutHandler(sessionService)
	authHandler := handlers.NewAuthHandler(authService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Initialize Fiber App ---
	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		broker := "disabled"
		if publisher != nil {
			broker = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitmq": broker,
		})
	})
	app.Get("/metrics", m.Handler())

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterRoutes(apiV1)

	// Login must be registered before the protected admin group.
	authHandler.RegisterRoutes(apiV1)
	admin := apiV1.Group("/admin", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(admin)
	orderHandler.RegisterRoutes(admin)

	return &server{
		app:      app,
		products: productService,
		sessions: sessionService,
	}
}
