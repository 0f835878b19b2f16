// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"kolo/internal/handlers"
	"kolo/internal/middleware"
	"kolo/internal/models"
	"kolo/internal/services/apikey"
	"kolo/internal/services/auth"
	"kolo/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Dependencies carries the services the HTTP surface is built on.
// They are constructed once in main and injected here.
type Dependencies struct {
	Ledger  ledger.Service
	Auth    auth.Service
	APIKeys apikey.Service
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	walletHandler := handlers.NewWalletHandler(deps.Ledger)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	keyHandler := handlers.NewAPIKeyHandler(deps.APIKeys)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth, deps.APIKeys)

	app.Get("/health", handlers.HealthCheck)

	app.Post("/auth/google", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}), authHandler.GoogleSignIn)

	wallet := app.Group("/wallet")

	// The webhook authenticates itself through its signature, not
	// through the identity boundary.
	wallet.Post("/paystack/webhook", walletHandler.Webhook)

	authed := wallet.Group("", authMiddleware.Handler)
	authed.Post("/deposit", middleware.RequirePermission(models.PermissionDeposit), walletHandler.InitializeDeposit)
	authed.Get("/deposit/:reference/status", middleware.RequirePermission(models.PermissionRead), walletHandler.DepositStatus)
	authed.Get("/balance", middleware.RequirePermission(models.PermissionRead), walletHandler.Balance)
	authed.Post("/transfer", middleware.RequirePermission(models.PermissionTransfer), walletHandler.Transfer)
	authed.Get("/transactions", middleware.RequirePermission(models.PermissionRead), walletHandler.Transactions)

	keys := app.Group("/keys", authMiddleware.Handler)
	keys.Post("/", keyHandler.Create)
	keys.Post("/:id/rollover", keyHandler.Rollover)
}
