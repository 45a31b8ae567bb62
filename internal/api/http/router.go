package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/api/http/handlers"
	"github.com/spec-kit/eventbright/internal/auth"
	"github.com/spec-kit/eventbright/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Events         *handlers.EventsHandler
	Transactions   *handlers.TransactionsHandler
	Vouchers       *handlers.VouchersHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Handle
	}
	organizer := auth.RequireRole(domain.RoleOrganizer)

	authGroup := app.Group("/auth", limit)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	txGroup := app.Group("/transaction", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), limit)
	txGroup.Post("/create", cfg.Transactions.Create)
	txGroup.Post("/submit-payment", cfg.Transactions.SubmitPayment)

	voucherGroup := app.Group("/voucher", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	voucherGroup.Get("/user/:id", cfg.Vouchers.ByUser)

	eventGroup := app.Group("/event", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	eventGroup.Post("/create", organizer, cfg.Events.Create)
	eventGroup.Get("/list", cfg.Events.List)
	eventGroup.Get("/organizer/events", organizer, cfg.Events.OrganizerEvents)
	eventGroup.Get("/organizer/statistics", organizer, cfg.Events.Statistics)
	eventGroup.Get("/:eventId", cfg.Events.Get)
	eventGroup.Put("/:eventId", organizer, cfg.Events.Update)
	eventGroup.Delete("/:eventId", organizer, cfg.Events.Delete)
	eventGroup.Get("/:eventId/attendees", organizer, cfg.Events.Attendees)
	eventGroup.Get("/:eventId/transactions", organizer, cfg.Events.Transactions)
}
