package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth           *handlers.AuthHandler
	User           *handlers.UserHandler
	Subscription   *handlers.SubscriptionHandler
	Reconciliation *handlers.ReconciliationHandler
	Health         *handlers.HealthHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, profiles middleware.ProfileLoader) {
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	jwt := middleware.JWTProtected(cfg)
	profile := middleware.CurrentProfile(profiles)
	keys := middleware.NewIdempotencyStore(cfg)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", middleware.Idempotency(cfg, keys, middleware.ByEmail), h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", jwt, h.Auth.Logout)

	api.Get("/users/me", jwt, profile, h.User.Me)

	subs := api.Group("/subscriptions", jwt, profile)
	subs.Post("/create", middleware.Idempotency(cfg, keys, middleware.ByAccount), h.Subscription.Create)
	subs.Get("/:id", h.Subscription.Get)
	subs.Post("/:id/cancel", h.Subscription.Cancel)

	// Operator view of cross-system inconsistencies
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/reconciliation", h.Reconciliation.List)
	admin.Post("/reconciliation/:id/resolve", h.Reconciliation.Resolve)
}
