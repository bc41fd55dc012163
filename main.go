package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/handlers"
	"orderdesk/internal/ledger"
	"orderdesk/internal/logging"
	"orderdesk/internal/middleware"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"
	"orderdesk/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
	logger.Info("service stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	var (
		mq        *rabbitmq.Client
		publisher services.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		publisher = mq
	} else {
		logger.Info("RABBITMQ_URL not set, messaging disabled")
	}

	srv := newServer(cfg, db, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
		return srv.app.Listen(cfg.AppPort)
	})

	if mq != nil {
		consumer := handlers.NewOrderConsumer(srv.processor, logger)
		g.Go(func() error {
			return mq.ConsumeOrders(gctx, consumer.Handle)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		return srv.app.ShutdownWithTimeout(shutdownTimeout)
	})

	return g.Wait()
}

// server bundles the HTTP app with the services behind it.
type server struct {
	app       *fiber.App
	processor *services.OrderProcessor
}

// newServer wires repositories, services and routes. A nil db selects the
// in-memory repositories; publisher may be nil.
func newServer(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, logger *zap.Logger) *server {
	var (
		receipts repositories.ReceiptRepository
		clients  repositories.ClientRepository
	)
	if db != nil {
		receipts = repositories.NewGORMReceiptRepository(db)
		clients = repositories.NewGORMClientRepository(db)
	} else {
		receipts = repositories.NewMemoryReceiptRepository()
		clients = repositories.NewMemoryClientRepository()
	}

	processor := services.NewOrderProcessor(ledger.New(), receipts, publisher, logger)
	authService := services.NewAuthService(clients, cfg.JWTSecret, cfg.TokenTTL, logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(logger).Writer(),
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"time":      time.Now().Format(time.RFC3339),
			"messaging": publisher != nil,
			"database":  cfg.DBDriver,
		})
	})

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService, logger))
	handlers.NewOrderHandler(processor, logger).RegisterRoutes(protected)
	handlers.NewCustomerHandler(processor).RegisterRoutes(protected)

	return &server{
		app:       app,
		processor: processor,
	}
}
