package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/network-ticketing/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Tickets    *handlers.TicketsHandler
	Categories *handlers.CategoriesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListAll)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/pick", cfg.Tickets.PickTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/auto-assign", cfg.Tickets.AutoAssignTicket)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/ai-resolution", cfg.Tickets.AddAIResolution)
	tickets.Post("/:id/sla-window", cfg.Tickets.SetSLAWindow)
	tickets.Get("/:id/history", cfg.Tickets.TicketHistory)

	api.Get("/customers/:id/tickets", cfg.Tickets.ListForCustomer)
	api.Get("/engineers/:id/tickets", cfg.Tickets.ListForEngineer)
	api.Get("/engineers/:id/queue", cfg.Tickets.EngineerQueue)

	categories := api.Group("/categories")
	categories.Get("", cfg.Categories.List)
	categories.Post("", cfg.Categories.Create)
	categories.Put("/:id", cfg.Categories.Update)
}
