package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/drbn-app/drbn-backend/internal/config"
	"github.com/drbn-app/drbn-backend/internal/features"
	"github.com/drbn-app/drbn-backend/internal/guest"
	"github.com/drbn-app/drbn-backend/internal/handlers"
	"github.com/drbn-app/drbn-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	deps *features.Deps,
	functionsHandler *handlers.FunctionsHandler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	guestHandler *guest.Handler,
	guestStore guest.Store,
	plugins []features.Plugin,
) {
	// Function surface, rooted at / for compatibility with the web client.
	app.Get("/health", functionsHandler.Health)
	app.Post("/skinAnalysis", functionsHandler.SkinAnalysis)
	app.Post("/analyzePhoto", functionsHandler.AnalyzePhoto)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected auth routes get JWT middleware individually so the public
	// ones above stay public.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)
	api.Post("/auth/migrate", middleware.JWTProtected(cfg), authHandler.Migrate)

	// Guest mode: session creation is open, everything else needs a valid
	// X-Guest-Token.
	api.Post("/guest/session", guestHandler.CreateSession)
	guestGroup := api.Group("/guest", middleware.GuestProtected(guestStore))
	guestGroup.Get("/profile", guestHandler.GetProfile)
	guestGroup.Put("/profile", guestHandler.SaveProfile)
	guestGroup.Get("/plans", guestHandler.ListPlans)
	guestGroup.Post("/plans/generate", guestHandler.GeneratePlan)
	guestGroup.Get("/wishlist", guestHandler.ListWishlist)
	guestGroup.Post("/wishlist", guestHandler.AddWishlistItem)
	guestGroup.Delete("/wishlist/:product_name", guestHandler.RemoveWishlistItem)

	// Feature plugin routes, JWT protected.
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, p := range plugins {
		p.RegisterRoutes(protected, deps)
	}
}
