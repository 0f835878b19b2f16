// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kolo/internal/config"
	"kolo/internal/repositories"
	"kolo/internal/repositories/cache"
	"kolo/internal/routes"
	"kolo/internal/scheduler"
	"kolo/internal/services/apikey"
	"kolo/internal/services/auth"
	"kolo/internal/services/ledger"
	"kolo/internal/services/paystack"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Successfully connected to database")

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cacheService := cache.NewCacheService(redisClient, 24*time.Hour)
	if err := cacheService.HealthCheck(context.Background()); err != nil {
		log.Printf("⚠️ Redis unavailable, continuing without wallet cache: %v", err)
		cacheService = nil
	}

	// Repositories and services, wired once.
	ledgerRepo := repositories.NewLedgerRepository(db)
	userRepo := repositories.NewUserRepository(db)
	keyRepo := repositories.NewAPIKeyRepository(db)

	gateway := paystack.NewClient(paystack.Config{
		BaseURL:       cfg.PaystackBaseURL,
		SecretKey:     cfg.PaystackSecretKey,
		WebhookSecret: cfg.PaystackWebhookSecret,
	})

	var walletCache ledger.WalletCache
	if cacheService != nil {
		walletCache = cacheService
	}
	ledgerService := ledger.NewService(ledgerRepo, gateway, walletCache, ledger.VerifyPolicy{
		Interval:          cfg.VerifyInterval,
		Backoff:           cfg.VerifyBackoff,
		ThresholdAttempts: cfg.VerifyThresholdAttempts,
	})
	authService := auth.NewService(userRepo, cfg.GoogleClientID, cfg.DefaultCurrency)
	keyService := apikey.NewService(keyRepo, cfg.APIKeyLimit)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Ledger:  ledgerService,
		Auth:    authService,
		APIKeys: keyService,
	})

	// Background reconciliation loop, cancelled and joined on shutdown.
	reconciler := scheduler.New(ledgerService, cfg.SchedulerInterval)
	reconciler.Start(context.Background())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received, stopping")
	reconciler.Stop()

	if err := app.Shutdown(); err != nil {
		log.Printf("⚠️ Failed to shut down server cleanly: %v", err)
	}
	if cacheService != nil {
		if err := cacheService.Close(); err != nil {
			log.Printf("⚠️ Failed to close Redis connection: %v", err)
		}
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("⚠️ Failed to close database connection: %v", err)
	}
	log.Println("✅ Shutdown complete")
}
