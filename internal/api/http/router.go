package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Directory      *handlers.DirectoryHandler
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

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireEmployee())
	tickets.Post("/suggestions", cfg.Tickets.SuggestForDraft)
	tickets.Post("/", cfg.Tickets.SubmitTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/follow-up", cfg.Tickets.AddFollowUp)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachments)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/dashboard", cfg.StaffTickets.Dashboard)
	staff.Get("/tickets", cfg.StaffTickets.ListStaffTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetStaffTicket)
	staff.Post("/tickets/:id/responses", cfg.StaffTickets.RecordResponse)
	staff.Post("/tickets/:id/escalate", cfg.StaffTickets.Escalate)
	staff.Get("/tickets/:id/suggestions", cfg.StaffTickets.Suggestions)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/employees", cfg.Directory.ListEmployees)
	admin.Post("/employees", cfg.Directory.SaveEmployee)
	admin.Get("/supervisors", cfg.Directory.ListSupervisors)
	admin.Post("/supervisors", cfg.Directory.SaveSupervisor)
	admin.Get("/hr", cfg.Directory.ListHR)
	admin.Post("/hr", cfg.Directory.SaveHR)
	admin.Get("/projects", cfg.Directory.ListProjects)
	admin.Post("/projects", cfg.Directory.SaveProject)
}
