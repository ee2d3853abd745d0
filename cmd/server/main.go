package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/config"
	"github.com/drbn-app/drbn-backend/internal/database"
	"github.com/drbn-app/drbn-backend/internal/features"
	"github.com/drbn-app/drbn-backend/internal/features/checkin"
	"github.com/drbn-app/drbn-backend/internal/features/products"
	"github.com/drbn-app/drbn-backend/internal/features/profile"
	"github.com/drbn-app/drbn-backend/internal/features/routine"
	"github.com/drbn-app/drbn-backend/internal/guest"
	"github.com/drbn-app/drbn-backend/internal/handlers"
	"github.com/drbn-app/drbn-backend/internal/lock"
	"github.com/drbn-app/drbn-backend/internal/logging"
	"github.com/drbn-app/drbn-backend/internal/middleware"
	"github.com/drbn-app/drbn-backend/internal/routes"
	"github.com/drbn-app/drbn-backend/internal/services"
	"github.com/drbn-app/drbn-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	for env, val := range map[string]string{
		"JWT_SECRET":         cfg.JWTSecret,
		"DB_PASSWORD":        cfg.DBPassword,
		"AI_API_KEY":         cfg.AIAPIKey,
		"REDIS_ADDR":         cfg.RedisAddr,
		"CHECKIN_GCS_BUCKET": cfg.CheckinBucket,
	} {
		if val == "" {
			slog.Error(env + " environment variable is required")
			os.Exit(1)
		}
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Redis: guest sessions + generation locks
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	cancel()

	// Check-in photo bucket
	bucket, err := storage.NewGCSBucket(context.Background(), cfg)
	if err != nil {
		slog.Error("bucket init failed", "error", err)
		os.Exit(1)
	}

	aiClient := analysis.NewClient(cfg)
	locks := lock.NewRedisLocker(rdb)
	guestStore := guest.NewRedisStore(rdb)

	deps := &features.Deps{
		DB:     database.DB,
		Cfg:    cfg,
		AI:     aiClient,
		Photos: bucket,
		Locks:  locks,
	}

	plugins := []features.Plugin{
		profile.New(),
		checkin.New(),
		routine.New(),
		products.New(),
	}

	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.Name(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.Name(), "models", len(models))
		}
	}

	// Services and handlers
	authService := services.NewAuthService(database.DB, cfg)
	migrationService := services.NewMigrationService(database.DB, guestStore)

	functionsHandler := handlers.NewFunctionsHandler(aiClient)
	authHandler := handlers.NewAuthHandler(authService, migrationService)
	healthHandler := handlers.NewHealthHandler()
	guestHandler := guest.NewHandler(guestStore, aiClient, locks)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; body limit sized for three base64 photos per check-in
	app := fiber.New(fiber.Config{
		BodyLimit:    48 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, deps, functionsHandler, authHandler, healthHandler, guestHandler, guestStore, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := rdb.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
