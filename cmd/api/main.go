package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/cache"
	"github.com/aliyusifov99/inventory-management/internal/config"
	"github.com/aliyusifov99/inventory-management/internal/events"
	"github.com/aliyusifov99/inventory-management/internal/handler"
	"github.com/aliyusifov99/inventory-management/internal/middleware"
	"github.com/aliyusifov99/inventory-management/internal/observability"
	"github.com/aliyusifov99/inventory-management/internal/service"
	"github.com/aliyusifov99/inventory-management/internal/ws"
	"github.com/aliyusifov99/inventory-management/pkg/database"
	"github.com/aliyusifov99/inventory-management/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := observability.SetupLogger(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		log.WithError(err).Warn("Tracing disabled")
	}

	// 2. Setup ledger store
	store, closeStore, err := database.OpenStore(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open ledger store")
	}
	defer closeStore()

	// 3. Setup event publishers
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	publishers := events.Fanout{wsHub}
	if cfg.Kafka.Broker != "" {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		log.WithFields(logrus.Fields{"broker": cfg.Kafka.Broker, "topic": cfg.Kafka.Topic}).Info("Kafka publisher enabled")
	}

	var signer *jwt.Signer
	if cfg.Auth.Enabled {
		if signer, err = jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL); err != nil {
			log.WithError(err).Fatal("Failed to configure token auth")
		}
	} else {
		log.Warn("Authentication disabled: every request runs as the system actor")
	}

	// 4. Dependency injection
	queryCache := cache.New(cfg.Cache.TTL)
	invService := service.NewInventoryService(store, publishers, service.WithLogger(log))
	dashService := service.NewDashboardService(store, service.WithLogger(log))

	writeLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst)
	defer writeLimiter.Stop()

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Inventory Ledger v1.0",
	})

	app.Use(middleware.RequestLogger(log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.AllowOrigins}))

	handler.Routes{
		Inventory:  handler.NewInventoryHandler(invService, queryCache),
		Dashboard:  handler.NewDashboardHandler(dashService, queryCache),
		Health:     handler.NewHealthHandler(store),
		Signer:     signer,
		WriteLimit: writeLimiter.Middleware(),
	}.Mount(app)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Join(c)
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 6. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownTracing != nil {
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}

	log.Info("Server exited")
}
