package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jhoicas/shelf-inventory/docs"
	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/auth"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/application/usecase"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/events"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/security"
	httpRouter "github.com/jhoicas/shelf-inventory/internal/interfaces/http"
	"github.com/jhoicas/shelf-inventory/pkg/config"
	"github.com/jhoicas/shelf-inventory/pkg/logger"
	"github.com/jhoicas/shelf-inventory/pkg/metrics"
)

// @title						Shelf Inventory API
// @version					1.0
// @description				Product catalogue and stock ledger of a small shop.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("starting application")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer store.close()
	if err := store.bootstrapAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backend, cacheCloser, err := cacheBackend(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open cache")
	}
	aggregates := analytics.NewAggregateCache(
		backend,
		analytics.PoolConfig{Name: "stats", TTL: cfg.Cache.StatsTTL, Idle: cfg.Cache.StatsIdle},
		analytics.PoolConfig{Name: "options", TTL: cfg.Cache.OptionsTTL},
		log.Zerolog(),
		metrics.NewCacheMetrics(reg),
	)

	var publisher inventory.EventPublisher = events.Noop{}
	var publisherCloser closer
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka, log.Zerolog())
		publisher, publisherCloser = kp, kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("movement events enabled")
	}

	engine := inventory.NewStockEngine(store.txRunner, store.products, store.ledger, inventory.EngineConfig{
		ConflictRetries: cfg.Ledger.ConflictRetries,
		Stats:           aggregates,
		Events:          publisher,
		Log:             log.Zerolog(),
		Metrics:         metrics.NewEngineMetrics(reg),
	})
	lister := inventory.NewLedgerLister(store.strategies, log.Zerolog(), metrics.NewQueryMetrics(reg))
	replenishmentUC := inventory.NewReplenishmentUseCase(engine)
	dashboardUC := analytics.NewDashboardUseCase(engine, store.products, store.ledger, aggregates)
	reportsUC := analytics.NewStockReportUseCase(engine, store.products, store.ledger)
	productUC := usecase.NewProductUseCase(store.products, store.txRunner, aggregates, log.Zerolog())
	adminUC := auth.NewAdminUseCase(store.admins, security.ScryptVerifier{}, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI: http://localhost:<puerto>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Shelf Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.ping(pingCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:     productUC,
		Engine:        engine,
		Lister:        lister,
		Replenishment: replenishmentUC,
		Dashboard:     dashboardUC,
		Reports:       reportsUC,
		AdminUC:       adminUC,
		JWTSecret:     cfg.JWT.Secret,
		RequireAuth:   cfg.HTTP.RequireAuth,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, closing server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := closeAll(publisherCloser, cacheCloser); err != nil {
		log.Error().Err(err).Msg("release clients")
	}

	log.Info().Msg("application stopped")
}
