package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/belanjain/internal/config"
	"github.com/example/belanjain/internal/database"
	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/routes"
	"github.com/example/belanjain/internal/services"
	"github.com/example/belanjain/internal/telemetry"
)

const serviceName = "belanjain"

func main() {
	cfg := config.Load()
	telemetry.InitLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(serviceName, os.Stdout)
		if err != nil {
			log.Fatalf("failed to initialise tracer: %v", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Error("tracer shutdown failed", "error", err)
			}
		}()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if _, err := database.EnsureAdmin(db, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("admin account: %v", err)
	}
	if cfg.SeedProducts {
		if _, err := database.SeedProducts(db); err != nil {
			slog.Error("product seed failed", "error", err)
		}
	}

	stores, err := openStores(ctx, cfg, db)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer stores.Close()

	orders := services.NewOrderService(stores.Orders, stores.Notifier)
	ledger := services.NewLedger(stores.Ledger)
	checkout := services.NewCheckoutService(orders, ledger, services.SimulatedPayment(cfg.PaymentDelay))

	app := fiber.New(fiber.Config{
		AppName:      "Belanjain Backend",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.SessionHeader,
	}))
	app.Use(middleware.Tracing(serviceName))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	routes.Register(app, db, cfg, routes.Services{
		Orders:   orders,
		Ledger:   ledger,
		Checkout: checkout,
	})

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("fiber shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server",
		"port", cfg.AppPort,
		"order_store", cfg.OrderStore,
		"ledger_store", cfg.LedgerStore,
		"events", len(cfg.KafkaBrokers) > 0,
	)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		slog.Error("fiber.Listen error", "error", err)
	}
}
