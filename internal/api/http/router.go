package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	SLA            *handlers.SLAHandler
	Categories     *handlers.CategoriesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	manager := auth.RequireRole(domain.UserRoleManager)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/audit-logs", auth.RequireStaff(), cfg.Tickets.ListAuditLogs)

	sla := api.Group("/sla", auth.RequireStaff())
	sla.Get("/breaches", cfg.SLA.Breaches)
	sla.Get("/at-risk", cfg.SLA.AtRisk)
	sla.Get("/compliance", cfg.SLA.Compliance)
	sla.Post("/reconcile", manager, cfg.SLA.Reconcile)

	categories := api.Group("/categories")
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", manager, cfg.Categories.Create)
	categories.Patch("/:id", manager, cfg.Categories.Update)
	categories.Delete("/:id", manager, cfg.Categories.Deactivate)
}
