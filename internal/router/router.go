package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/handler"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Engagement *handler.EngagementHandler
	Video      *handler.VideoHandler
	User       *handler.UserHandler
	Reputation *handler.ReputationHandler
	Stats      *handler.StatsHandler
	Health     *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Probes and metrics (before API group, no rate limits)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	lookupLimit := middleware.NewLookupRateLimiter().Handler()
	engageLimit := middleware.NewEngagementRateLimiter().Handler()
	removeLimit := middleware.NewRemovalRateLimiter().Handler()
	statsLimit := middleware.NewStatsRateLimiter().Handler()

	// Engagement routes
	api.Post("/engagements", h.Engagement.Submit, engageLimit)
	api.Delete("/engagements", h.Engagement.Remove, removeLimit)
	api.Get("/engagements/:videoId/:userId", h.Engagement.GetLedger, lookupLimit)

	// Video routes
	api.Get("/videos/:videoId", h.Video.Get, lookupLimit)
	api.Post("/videos", h.Video.Register, engageLimit)
	api.Delete("/videos/:videoId", h.Video.Delete, removeLimit)

	// User routes
	api.Get("/users/:userId", h.User.Get, lookupLimit)

	// Reputation routes
	api.Get("/reputation/:userId", h.Reputation.Get, lookupLimit)
	api.Post("/reputation/events", h.Reputation.ApplyEvent, engageLimit)

	// Stats routes
	api.Get("/stats", h.Stats.GetStats, statsLimit)
}
