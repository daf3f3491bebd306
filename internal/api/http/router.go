package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/authz"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Profile        *handlers.ProfileHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *authz.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireIdentity())

	api.Get("/profile", cfg.Profile.GetProfile)
	api.Put("/profile", cfg.Profile.SaveProfile)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	api.Get("/stats", cfg.Tickets.MyStats)

	admin := api.Group("/admin", auth.RequireAdmin(cfg.Gate))
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Patch("/tickets/:id/status", cfg.Admin.UpdateStatus)
	admin.Post("/tickets/:id/reject", cfg.Admin.RejectTicket)
	admin.Get("/stats", cfg.Admin.GlobalStats)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/role", cfg.Admin.SetRole)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
}
